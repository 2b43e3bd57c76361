package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS devices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	status BOOLEAN NOT NULL DEFAULT 0,
	setpoint REAL
);
CREATE TABLE IF NOT EXISTS energy_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	recorded_at TIMESTAMP NOT NULL,
	usage_value REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_energy_usage_device_time ON energy_usage(device_id, recorded_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS devices (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	status BOOLEAN NOT NULL DEFAULT FALSE,
	setpoint DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS energy_usage (
	id BIGSERIAL PRIMARY KEY,
	device_id BIGINT NOT NULL REFERENCES devices(id),
	recorded_at TIMESTAMPTZ NOT NULL,
	usage_value DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_energy_usage_device_time ON energy_usage(device_id, recorded_at);
`

// Migrate creates the device registry tables for the connected driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	switch db.DriverName() {
	case "postgres", "pgx":
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
