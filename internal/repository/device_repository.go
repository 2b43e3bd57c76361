package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/repository/models"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoSetpoint is returned when shifting the setpoint of a device that has none.
	ErrNoSetpoint = errors.New("no setpoint")
	// ErrOutOfBounds is returned when a shifted setpoint would leave its bounds.
	ErrOutOfBounds = errors.New("setpoint out of bounds")
)

// DefaultDevices is the registry seeded into an empty database.
var DefaultDevices = []models.Device{
	{Name: "Living Room Lights", Type: "lighting"},
	{Name: "AC Unit", Type: "hvac"},
	{Name: "Smart TV", Type: "tv"},
	{Name: "Smart Thermostat", Type: "thermostat", Setpoint: ptr(22.0)},
	{Name: "Smart Door Lock", Type: "lock"},
	{Name: "Security Camera", Type: "camera", Status: true},
}

func ptr[T any](v T) *T { return &v }

// DeviceRepository stores devices and their usage readings. Queries are
// written with ? placeholders and rebound for the connected driver.
type DeviceRepository struct {
	db *sqlx.DB
}

func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Seed inserts DefaultDevices when the devices table is empty and reports how
// many rows it wrote.
func (r *DeviceRepository) Seed(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM devices`); err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO devices (name, type, status, setpoint) VALUES (?, ?, ?, ?)`)
	for _, d := range DefaultDevices {
		if _, err := tx.ExecContext(ctx, query, d.Name, d.Type, d.Status, d.Setpoint); err != nil {
			return 0, fmt.Errorf("seed device %q: %w", d.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(DefaultDevices), nil
}

func (r *DeviceRepository) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.SelectContext(ctx, &devices, `SELECT id, name, type, status, setpoint FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query ListDevices: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) GetDevice(ctx context.Context, id int64) (models.Device, error) {
	var d models.Device
	err := r.db.GetContext(ctx, &d, r.db.Rebind(`SELECT id, name, type, status, setpoint FROM devices WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Device{}, fmt.Errorf("device %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("query GetDevice: %w", err)
	}
	return d, nil
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, id int64, on bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE devices SET status = ? WHERE id = ?`), on, id)
	if err != nil {
		return fmt.Errorf("exec UpdateStatus: %w", err)
	}
	return expectOneRow(res, id)
}

// ShiftSetpoint adds delta to a device setpoint in one conditional UPDATE, so
// concurrent shifts never overwrite each other. The row is left untouched
// when the device has no setpoint (ErrNoSetpoint) or the result would leave
// [lo, hi] (ErrOutOfBounds); the device as stored is returned either way.
func (r *DeviceRepository) ShiftSetpoint(ctx context.Context, id int64, delta, lo, hi float64) (models.Device, error) {
	const query = `
		UPDATE devices SET setpoint = setpoint + ?
		WHERE id = ? AND setpoint IS NOT NULL AND setpoint + ? BETWEEN ? AND ?
	`
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Device{}, fmt.Errorf("begin ShiftSetpoint: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(query), delta, id, delta, lo, hi)
	if err != nil {
		return models.Device{}, fmt.Errorf("exec ShiftSetpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Device{}, fmt.Errorf("rows affected: %w", err)
	}

	var d models.Device
	err = tx.GetContext(ctx, &d, tx.Rebind(`SELECT id, name, type, status, setpoint FROM devices WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Device{}, fmt.Errorf("device %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("query ShiftSetpoint: %w", err)
	}
	switch {
	case n > 0:
	case d.Setpoint == nil:
		return d, fmt.Errorf("device %d: %w", id, ErrNoSetpoint)
	default:
		return d, fmt.Errorf("device %d: %w", id, ErrOutOfBounds)
	}

	if err := tx.Commit(); err != nil {
		return models.Device{}, fmt.Errorf("commit ShiftSetpoint: %w", err)
	}
	return d, nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("device %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertUsage stores a reading and returns its id.
func (r *DeviceRepository) InsertUsage(ctx context.Context, reading models.UsageReading) (int64, error) {
	const query = `
		INSERT INTO energy_usage (device_id, recorded_at, usage_value)
		VALUES (?, ?, ?)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		reading.DeviceID, reading.RecordedAt.UTC(), reading.UsageValue).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert InsertUsage: %w", err)
	}
	return id, nil
}

// UsageForDevice lists readings for one device in [start, end], oldest first.
func (r *DeviceRepository) UsageForDevice(ctx context.Context, deviceID int64, start, end time.Time) ([]models.UsageReading, error) {
	const query = `
		SELECT id, device_id, recorded_at, usage_value
		FROM energy_usage
		WHERE device_id = ? AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at, id
	`
	var readings []models.UsageReading
	err := r.db.SelectContext(ctx, &readings, r.db.Rebind(query), deviceID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query UsageForDevice: %w", err)
	}
	return readings, nil
}

// TotalUsage sums every reading in [start, end] across all devices.
func (r *DeviceRepository) TotalUsage(ctx context.Context, start, end time.Time) (models.UsageTotal, error) {
	const query = `
		SELECT
			COALESCE(SUM(usage_value), 0) AS total,
			COUNT(id) AS count
		FROM energy_usage
		WHERE recorded_at >= ? AND recorded_at <= ?
	`
	var total sql.NullFloat64
	var count sql.NullInt64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), start.UTC(), end.UTC()).Scan(&total, &count)
	if err != nil {
		return models.UsageTotal{}, fmt.Errorf("query TotalUsage: %w", err)
	}

	result := models.UsageTotal{}
	if total.Valid {
		result.Total = total.Float64
	}
	if count.Valid {
		result.Count = count.Int64
	}
	return result, nil
}
