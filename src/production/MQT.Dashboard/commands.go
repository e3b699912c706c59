package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

const (
	recentCommandsLimit = 5
	defaultOperator     = "Operador"
)

var (
	ErrInvalidAction = errors.New("invalid action for equipment")
	ErrUnknownKind   = errors.New("unknown equipment kind")
)

// CommandHistory is the recent command list of one equipment kind
type CommandHistory struct {
	Kind         mqtmodels.EquipmentKind `json:"kind"`
	Commands     []mqtmodels.Command     `json:"commands"`
	Power        string                  `json:"power,omitempty"`
	Notification string                  `json:"notification,omitempty"`
}

// CommandConsole sends operator commands to auxiliary equipment. With a scheduler
// it also re-reads every kind's history so statuses written back by the equipment show up.
type CommandConsole struct {
	commands  interfaces.CommandRepository
	outbox    Outbox
	clock     Clock
	publisher Publisher
	logger    *logger.Logger
	sched     *Scheduler
	period    time.Duration

	mu    sync.RWMutex
	power map[mqtmodels.EquipmentKind]string
	task  *TaskHandle
}

// ConsoleOption customizes the command console.
type ConsoleOption func(*CommandConsole)

// WithConsoleOutbox publishes every sent command to the equipment.
func WithConsoleOutbox(outbox Outbox) ConsoleOption {
	return func(c *CommandConsole) {
		if outbox != nil {
			c.outbox = outbox
		}
	}
}

// WithConsoleClock assigns a clock.
func WithConsoleClock(clock Clock) ConsoleOption {
	return func(c *CommandConsole) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithConsoleRefresh polls the command histories every period.
func WithConsoleRefresh(sched *Scheduler, period time.Duration) ConsoleOption {
	return func(c *CommandConsole) {
		c.sched = sched
		c.period = period
	}
}

func NewCommandConsole(commands interfaces.CommandRepository, publisher Publisher, log *logger.Logger, opts ...ConsoleOption) *CommandConsole {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	c := &CommandConsole{
		commands:  commands,
		outbox:    nopOutbox{},
		clock:     systemClock{},
		publisher: publisher,
		logger:    log.WithComponent("command_console"),
		power:     make(map[mqtmodels.EquipmentKind]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start schedules the history refresh and runs it once. Without WithConsoleRefresh it does nothing.
func (c *CommandConsole) Start(ctx context.Context) {
	c.mu.Lock()
	if c.sched == nil || c.task != nil {
		c.mu.Unlock()
		return
	}
	h := c.sched.Schedule("commands", c.period, c.refresh, false)
	c.task = h
	c.mu.Unlock()

	if err := h.Run(ctx); err != nil {
		c.logger.WithError(err).Warn("initial command refresh failed")
	}
}

// Stop cancels the history refresh
func (c *CommandConsole) Stop() {
	c.mu.Lock()
	h := c.task
	c.task = nil
	c.mu.Unlock()
	h.Cancel()
}

func (c *CommandConsole) refresh(ctx context.Context, h *TaskHandle, cy Cycle) error {
	var (
		histories []CommandHistory
		firstErr  error
	)
	for _, kind := range mqtmodels.EquipmentKinds() {
		history, err := c.Recent(ctx, kind)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		histories = append(histories, history)
	}
	h.Commit(cy.Seq, func() {
		for _, history := range histories {
			c.publisher.Publish(EventCommands, history)
		}
	})
	return firstErr
}

// Power returns the last power state set through the console, "" when unknown
func (c *CommandConsole) Power(kind mqtmodels.EquipmentKind) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.power[kind]
}

// Send stores a new command in the kind's collection and forwards it to the equipment
func (c *CommandConsole) Send(ctx context.Context, kind mqtmodels.EquipmentKind, action, user string) (cmd *mqtmodels.Command, err error) {
	if _, ok := mqtmodels.ParseEquipmentKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !kind.Accepts(action) {
		return nil, fmt.Errorf("%w: %s does not accept %q", ErrInvalidAction, kind, action)
	}
	defer func() { metrics.IncCommand(string(kind), err) }()

	if user == "" {
		user = defaultOperator
	}
	cmd, err = c.commands.CreateCommand(ctx, kind, mqtmodels.Command{
		Device: kind.Label(),
		Action: action,
		Date:   mqtmodels.FormatTimestamp(c.clock.Now()),
		Status: mqtmodels.CommandSent,
		User:   user,
	})
	if err != nil {
		c.logger.WithField("kind", kind).ErrorWithError(err, "failed to send command")
		return nil, fmt.Errorf("create %s command: %w", kind, err)
	}

	switch action {
	case mqtmodels.ActionOn:
		c.setPower(kind, mqtmodels.PowerOn)
	case mqtmodels.ActionOff:
		c.setPower(kind, mqtmodels.PowerOff)
	}

	log := c.logger.WithFields(map[string]interface{}{"kind": kind, "action": action, "command_id": cmd.ID})
	if err := c.outbox.Publish(ctx, "equipment/"+string(kind)+"/command", cmd); err != nil {
		log.WithError(err).Warn("failed to publish command")
	}
	log.Info("command sent")

	if history, err := c.Recent(ctx, kind); err == nil {
		c.publisher.Publish(EventCommands, history)
	}
	return cmd, nil
}

// Recent lists the latest commands of a kind, newest first
func (c *CommandConsole) Recent(ctx context.Context, kind mqtmodels.EquipmentKind) (CommandHistory, error) {
	if _, ok := mqtmodels.ParseEquipmentKind(string(kind)); !ok {
		return CommandHistory{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	commands, err := c.commands.ListCommands(ctx, kind, interfaces.ListQuery{
		SortBy: "id",
		Order:  interfaces.OrderDesc,
		Limit:  recentCommandsLimit,
	})
	if err != nil {
		return CommandHistory{Kind: kind, Commands: []mqtmodels.Command{}}, fmt.Errorf("list %s commands: %w", kind, err)
	}

	history := CommandHistory{Kind: kind, Commands: commands, Power: c.Power(kind)}
	if len(commands) > 0 && commands[0].Status == mqtmodels.CommandError {
		history.Notification = fmt.Sprintf("El %s reportó un error en el último comando (%s).", kind, commands[0].Action)
	}
	return history, nil
}

func (c *CommandConsole) setPower(kind mqtmodels.EquipmentKind, state string) {
	c.mu.Lock()
	c.power[kind] = state
	c.mu.Unlock()
}
