package implementation

import (
	"context"
	"database/sql"
	"errors"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var deviceSelect = selectBuilder{
	table:      "dispositivos",
	columns:    []string{"id", "nombre", "tipo", "ubicacion", "ip", "estado", "ph_actual", "ph_objetivo", "automatico"},
	sortable:   map[string]bool{"id": true, "nombre": true, "tipo": true, "ubicacion": true, "estado": true},
	filterable: map[string]bool{"estado": true, "tipo": true, "ubicacion": true, "automatico": true},
}

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) ListDevices(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Device, error) {
	query, args := deviceSelect.build(q, nil)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]mqtmodels.Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}

func (r *PostgresDeviceRepository) GetDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	serial, ok := parseSerial(id)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	query, args := deviceSelect.build(interfaces.ListQuery{}, map[string]string{"id": formatSerial(serial)})
	device, err := scanDevice(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return device, err
}

func (r *PostgresDeviceRepository) CreateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	query := `
		INSERT INTO dispositivos (nombre, tipo, ubicacion, ip, estado, ph_actual, ph_objetivo, automatico)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var serial int64
	err := r.db.QueryRowContext(ctx, query,
		device.Name, device.Type, device.Location, nullString(device.IP), string(device.State),
		device.CurrentPH, device.TargetPH, device.Automatic,
	).Scan(&serial)
	if err != nil {
		return nil, err
	}
	device.ID = formatSerial(serial)
	return &device, nil
}

func (r *PostgresDeviceRepository) UpdateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	serial, ok := parseSerial(device.ID)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	query := `
		UPDATE dispositivos
		SET nombre = $1, tipo = $2, ubicacion = $3, ip = $4, estado = $5,
		    ph_actual = $6, ph_objetivo = $7, automatico = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		device.Name, device.Type, device.Location, nullString(device.IP), string(device.State),
		device.CurrentPH, device.TargetPH, device.Automatic, serial,
	)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &device, nil
}

// DeleteDevice leaves the device's readings in place; readers skip orphans
func (r *PostgresDeviceRepository) DeleteDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	serial, ok := parseSerial(id)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	query := `
		DELETE FROM dispositivos WHERE id = $1
		RETURNING id, nombre, tipo, ubicacion, ip, estado, ph_actual, ph_objetivo, automatico
	`
	device, err := scanDevice(r.db.QueryRowContext(ctx, query, serial))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return device, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner) (*mqtmodels.Device, error) {
	var (
		device  mqtmodels.Device
		serial  int64
		ip      sql.NullString
		state   string
		current sql.NullFloat64
		target  sql.NullFloat64
	)
	if err := row.Scan(&serial, &device.Name, &device.Type, &device.Location, &ip, &state, &current, &target, &device.Automatic); err != nil {
		return nil, err
	}
	device.ID = formatSerial(serial)
	device.IP = ip.String
	device.State = mqtmodels.DeviceState(state)
	device.CurrentPH = nullFloat(current)
	device.TargetPH = nullFloat(target)
	return &device, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
