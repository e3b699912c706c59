package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
)

// Cycle describes one invocation of a scheduled task
type Cycle struct {
	// Seq increases with every issued cycle, forced or not
	Seq uint64
	// N is the 0-based index among periodic cycles; forced cycles repeat the last N
	N int
	// Forced is set for cycles started by Trigger rather than by the tick source
	Forced bool
}

// TaskFunc is the body of a poll task. It must pass results through TaskHandle.Commit.
type TaskFunc func(ctx context.Context, h *TaskHandle, c Cycle) error

// TaskHandle is the cancellable handle owned by whoever scheduled the task
type TaskHandle struct {
	name  string
	every int
	fn    TaskFunc
	sched *Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	elapsed   int
	issued    uint64
	applied   uint64
	cycles    int
	cancelled bool
}

// Cancel stops future cycles and cancels in-flight ones. Idempotent.
func (h *TaskHandle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.mu.Unlock()

	h.cancel()
	h.sched.remove(h)
}

// Cancelled reports whether Cancel has been called
func (h *TaskHandle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Trigger runs a forced cycle right away without advancing the periodic counter
func (h *TaskHandle) Trigger() {
	h.sched.fire(h, true)
}

// Run executes a periodic cycle synchronously on the caller's goroutine.
// Views use it for the immediate refresh that follows a selection.
func (h *TaskHandle) Run(ctx context.Context) error {
	return h.runSync(ctx, false)
}

// Force executes a forced cycle synchronously. The periodic counter is not advanced.
func (h *TaskHandle) Force(ctx context.Context) error {
	return h.runSync(ctx, true)
}

func (h *TaskHandle) runSync(ctx context.Context, forced bool) error {
	c, ok := h.begin(forced)
	if !ok {
		return context.Canceled
	}
	err := h.fn(ctx, h, c)
	if !errors.Is(err, context.Canceled) {
		metrics.IncPollerCycle(h.name, err)
	}
	return err
}

// Commit applies the results of cycle seq unless a newer cycle was already applied
// or the task was cancelled. It reports whether apply ran.
func (h *TaskHandle) Commit(seq uint64, apply func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || seq <= h.applied {
		metrics.IncStaleResult(h.name)
		return false
	}
	h.applied = seq
	apply()
	return true
}

func (h *TaskHandle) begin(forced bool) (Cycle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return Cycle{}, false
	}
	h.issued++
	c := Cycle{Seq: h.issued, Forced: forced}
	if forced {
		c.N = h.cycles - 1
		if c.N < 0 {
			c.N = 0
		}
	} else {
		c.N = h.cycles
		h.cycles++
	}
	return c, true
}

// due advances the tick counter and reports whether a periodic cycle is due
func (h *TaskHandle) due() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return false
	}
	h.elapsed++
	if h.elapsed >= h.every {
		h.elapsed = 0
		return true
	}
	return false
}

// Scheduler drives every poll task from one tick source. Each due task runs in its own goroutine.
type Scheduler struct {
	resolution time.Duration
	logger     *logger.Logger

	mu      sync.Mutex
	tasks   map[*TaskHandle]struct{}
	order   []*TaskHandle
	stopped bool
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
	base    context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler whose tick source fires every resolution
func NewScheduler(resolution time.Duration, log *logger.Logger) *Scheduler {
	if resolution <= 0 {
		resolution = 500 * time.Millisecond
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		resolution: resolution,
		logger:     log.WithComponent("scheduler"),
		tasks:      make(map[*TaskHandle]struct{}),
		done:       make(chan struct{}),
		base:       base,
		cancel:     cancel,
	}
}

// Start launches the tick source. Without Start the scheduler only moves on Advance.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	ticker := time.NewTicker(s.resolution)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.Advance()
			}
		}
	}()
}

// Schedule registers fn to run every period, rounded to the tick resolution.
// With runNow the first cycle starts immediately.
func (s *Scheduler) Schedule(name string, period time.Duration, fn TaskFunc, runNow bool) *TaskHandle {
	every := int((period + s.resolution/2) / s.resolution)
	if every < 1 {
		every = 1
	}
	ctx, cancel := context.WithCancel(s.base)
	h := &TaskHandle{
		name:   name,
		every:  every,
		fn:     fn,
		sched:  s,
		ctx:    ctx,
		cancel: cancel,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		h.cancelled = true
		cancel()
		return h
	}
	s.tasks[h] = struct{}{}
	s.order = append(s.order, h)
	n := len(s.tasks)
	s.mu.Unlock()
	metrics.SetPollerTasks(n)

	if runNow {
		s.fire(h, false)
	}
	return h
}

// Advance processes one tick of the tick source
func (s *Scheduler) Advance() {
	s.mu.Lock()
	tasks := make([]*TaskHandle, len(s.order))
	copy(tasks, s.order)
	s.mu.Unlock()

	for _, h := range tasks {
		if h.due() {
			s.fire(h, false)
		}
	}
}

// Wait blocks until every in-flight cycle has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Len returns the number of live tasks
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every task and waits for in-flight cycles
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	tasks := make([]*TaskHandle, len(s.order))
	copy(tasks, s.order)
	s.mu.Unlock()

	for _, h := range tasks {
		h.Cancel()
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) remove(h *TaskHandle) {
	s.mu.Lock()
	delete(s.tasks, h)
	for i, t := range s.order {
		if t == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	n := len(s.tasks)
	s.mu.Unlock()
	metrics.SetPollerTasks(n)
}

func (s *Scheduler) fire(h *TaskHandle, forced bool) {
	c, ok := h.begin(forced)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		err := h.fn(h.ctx, h, c)
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.IncPollerCycle(h.name, err)
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"task": h.name,
				"seq":  c.Seq,
			}).Warn("poll cycle failed")
		}
	}()
}
