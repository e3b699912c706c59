package implementation

import (
	"context"
	"database/sql"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var commandSelect = selectBuilder{
	table:      "comandos",
	columns:    []string{"id", "dispositivo", "accion", "fecha", "estado", "usuario"},
	sortable:   map[string]bool{"id": true, "fecha": true},
	filterable: map[string]bool{"accion": true, "estado": true, "usuario": true},
}

// PostgresCommandRepository stores every kind's log in one table keyed by equipo
type PostgresCommandRepository struct {
	db *sql.DB
}

func NewPostgresCommandRepository(db *sql.DB) *PostgresCommandRepository {
	return &PostgresCommandRepository{db: db}
}

func (r *PostgresCommandRepository) ListCommands(ctx context.Context, kind mqtmodels.EquipmentKind, q interfaces.ListQuery) ([]mqtmodels.Command, error) {
	query, args := commandSelect.build(q, map[string]string{"equipo": string(kind)})
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commands := make([]mqtmodels.Command, 0)
	for rows.Next() {
		var (
			cmd    mqtmodels.Command
			serial int64
		)
		if err := rows.Scan(&serial, &cmd.Device, &cmd.Action, &cmd.Date, &cmd.Status, &cmd.User); err != nil {
			return nil, err
		}
		cmd.ID = formatSerial(serial)
		commands = append(commands, cmd)
	}
	return commands, rows.Err()
}

func (r *PostgresCommandRepository) CreateCommand(ctx context.Context, kind mqtmodels.EquipmentKind, cmd mqtmodels.Command) (*mqtmodels.Command, error) {
	query := `
		INSERT INTO comandos (equipo, dispositivo, accion, fecha, estado, usuario)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var serial int64
	if err := r.db.QueryRowContext(ctx, query, string(kind), cmd.Device, cmd.Action, cmd.Date, cmd.Status, cmd.User).Scan(&serial); err != nil {
		return nil, err
	}
	cmd.ID = formatSerial(serial)
	return &cmd, nil
}
