package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Config"
)

// ConnectPostgresWithTimeout opens the store database and pings it within timeout
func ConnectPostgresWithTimeout(cfg *config.StoreConfig, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// DatabaseManager handles schema setup
type DatabaseManager struct {
	db *sql.DB
}

func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// Schema is the store's PostgreSQL schema. Timestamps are kept as the ISO
// strings clients send so that they sort and round-trip unchanged.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS dispositivos (
		id          BIGSERIAL PRIMARY KEY,
		nombre      TEXT NOT NULL DEFAULT '',
		tipo        TEXT NOT NULL DEFAULT '',
		ubicacion   TEXT NOT NULL DEFAULT '',
		ip          TEXT NOT NULL DEFAULT '',
		estado      TEXT NOT NULL DEFAULT 'inactivo',
		ph_actual   DOUBLE PRECISION,
		ph_objetivo DOUBLE PRECISION,
		automatico  BOOLEAN NOT NULL DEFAULT false
	);`,
	// no foreign key: readings outlive their device
	`CREATE TABLE IF NOT EXISTS registros (
		id                   BIGSERIAL PRIMARY KEY,
		dispositivo_id       TEXT NOT NULL,
		ph                   DOUBLE PRECISION,
		dosificador_activado BOOLEAN NOT NULL DEFAULT false,
		"timestamp"          TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS comandos (
		id          BIGSERIAL PRIMARY KEY,
		equipo      TEXT NOT NULL,
		dispositivo TEXT NOT NULL DEFAULT '',
		accion      TEXT NOT NULL,
		fecha       TEXT NOT NULL DEFAULT '',
		estado      TEXT NOT NULL DEFAULT '',
		usuario     TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_registros_dispositivo_ts ON registros (dispositivo_id, "timestamp" DESC);
	CREATE INDEX IF NOT EXISTS idx_registros_ts ON registros ("timestamp" DESC);
	CREATE INDEX IF NOT EXISTS idx_comandos_equipo_id ON comandos (equipo, id DESC);`,
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, query := range Schema {
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
