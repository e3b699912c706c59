package implementation

import (
	"context"
	"database/sql"
	"errors"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var readingSelect = selectBuilder{
	table:      "registros",
	columns:    []string{"id", "dispositivo_id", "ph", "dosificador_activado", "timestamp"},
	sortable:   map[string]bool{"id": true, "timestamp": true, "dispositivo_id": true},
	filterable: map[string]bool{"dispositivo_id": true, "dosificador_activado": true},
}

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

func (r *PostgresReadingRepository) ListReadings(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Reading, error) {
	query, args := readingSelect.build(q, nil)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]mqtmodels.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	return readings, rows.Err()
}

func (r *PostgresReadingRepository) GetReading(ctx context.Context, id string) (*mqtmodels.Reading, error) {
	serial, ok := parseSerial(id)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	query, args := readingSelect.build(interfaces.ListQuery{}, map[string]string{"id": formatSerial(serial)})
	reading, err := scanReading(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return reading, err
}

func (r *PostgresReadingRepository) CreateReading(ctx context.Context, reading mqtmodels.Reading) (*mqtmodels.Reading, error) {
	query := `
		INSERT INTO registros (dispositivo_id, ph, dosificador_activado, "timestamp")
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var serial int64
	if err := r.db.QueryRowContext(ctx, query, reading.DeviceID, reading.PH, reading.DosingActivated, reading.Timestamp).Scan(&serial); err != nil {
		return nil, err
	}
	reading.ID = formatSerial(serial)
	return &reading, nil
}

func scanReading(row rowScanner) (*mqtmodels.Reading, error) {
	var (
		reading mqtmodels.Reading
		serial  int64
		ph      sql.NullFloat64
	)
	if err := row.Scan(&serial, &reading.DeviceID, &ph, &reading.DosingActivated, &reading.Timestamp); err != nil {
		return nil, err
	}
	reading.ID = formatSerial(serial)
	reading.PH = nullFloat(ph)
	return &reading, nil
}
