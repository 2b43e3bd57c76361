package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/repository"
	"github.com/godilite/energy-dashboard/internal/repository/models"
	"go.uber.org/zap"
)

const (
	dbTimeout = 1 * time.Second

	MinSetpoint = 16.0
	MaxSetpoint = 30.0
)

var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrStorageFailure     = errors.New("storage failure")
	ErrNotAdjustable      = errors.New("device has no setpoint")
	ErrSetpointOutOfRange = errors.New("setpoint out of range")
)

// powerRange is the simulated draw in watts of a device that is on: lo plus a
// uniform integer in [0, span).
type powerRange struct {
	lo, span int
}

var powerByType = map[string]powerRange{
	"lighting": {40, 20},
	"hvac":     {1000, 500},
	"tv":       {100, 50},
	"camera":   {5, 5},
}

// DeviceService manages the device registry and its usage readings.
type DeviceService struct {
	storage   DeviceRepository
	publisher CommandPublisher
	rng       generator.Intn
	logger    *zap.Logger
}

// NewDeviceService creates a new DeviceService instance. A nil publisher keeps
// state changes local.
func NewDeviceService(storage DeviceRepository, publisher CommandPublisher, rng generator.Intn, logger *zap.Logger) *DeviceService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if rng == nil {
		rng = generator.NewSource(0)
	}
	return &DeviceService{
		storage:   storage,
		publisher: publisher,
		rng:       rng,
		logger:    logger.Named("devices"),
	}
}

func storageErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrDeviceNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageFailure, err)
}

func (s *DeviceService) powerDraw(d models.Device) int {
	if !d.Status {
		return 0
	}
	r, ok := powerByType[d.Type]
	if !ok {
		return 0
	}
	return r.lo + s.rng.Intn(r.span)
}

func (s *DeviceService) state(d models.Device) DeviceState {
	return DeviceState{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		Status:    d.Status,
		Setpoint:  d.Setpoint,
		PowerDraw: s.powerDraw(d),
	}
}

// ListDevices returns every registered device with its current power draw.
func (s *DeviceService) ListDevices(ctx context.Context) ([]DeviceState, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	devices, err := s.storage.ListDevices(dbCtx)
	if err != nil {
		return nil, storageErr("list devices", err)
	}

	out := make([]DeviceState, 0, len(devices))
	for _, d := range devices {
		out = append(out, s.state(d))
	}
	return out, nil
}

// SetDeviceStatus switches a device on or off and forwards the change to the
// device. A failed publish is logged; the stored state stays authoritative.
func (s *DeviceService) SetDeviceStatus(ctx context.Context, id int64, on bool) (DeviceState, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.storage.UpdateStatus(dbCtx, id, on); err != nil {
		return DeviceState{}, storageErr("set device status", err)
	}
	d, err := s.storage.GetDevice(dbCtx, id)
	if err != nil {
		return DeviceState{}, storageErr("set device status", err)
	}

	s.logger.Info("device status changed",
		zap.Int64("device_id", id),
		zap.String("name", d.Name),
		zap.Bool("on", on))

	if s.publisher != nil {
		if err := s.publisher.PublishStatus(ctx, d); err != nil {
			s.logger.Warn("failed to publish device status", zap.Int64("device_id", id), zap.Error(err))
		}
	}
	return s.state(d), nil
}

// AdjustSetpoint moves a thermostat setpoint by delta degrees. The result must
// stay within [MinSetpoint, MaxSetpoint]; the check and the write happen in
// storage as one step.
func (s *DeviceService) AdjustSetpoint(ctx context.Context, id int64, delta float64) (DeviceState, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	d, err := s.storage.ShiftSetpoint(dbCtx, id, delta, MinSetpoint, MaxSetpoint)
	switch {
	case errors.Is(err, repository.ErrNoSetpoint):
		return DeviceState{}, fmt.Errorf("device %d (%s): %w", id, d.Type, ErrNotAdjustable)
	case errors.Is(err, repository.ErrOutOfBounds):
		return DeviceState{}, fmt.Errorf("%w: %.1f not within %.0f-%.0f", ErrSetpointOutOfRange, *d.Setpoint+delta, MinSetpoint, MaxSetpoint)
	case err != nil:
		return DeviceState{}, storageErr("adjust setpoint", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSetpoint(ctx, d); err != nil {
			s.logger.Warn("failed to publish setpoint", zap.Int64("device_id", id), zap.Error(err))
		}
	}
	return s.state(d), nil
}

// RecordUsage stores a reading for an existing device.
func (s *DeviceService) RecordUsage(ctx context.Context, reading UsageReading) (UsageReading, error) {
	if reading.UsageValue < 0 {
		return UsageReading{}, fmt.Errorf("%w: usage value must not be negative", ErrInvalidInput)
	}
	if reading.RecordedAt.IsZero() {
		return UsageReading{}, fmt.Errorf("%w: recorded_at is required", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.storage.GetDevice(dbCtx, reading.DeviceID); err != nil {
		return UsageReading{}, storageErr("record usage", err)
	}

	id, err := s.storage.InsertUsage(dbCtx, models.UsageReading{
		DeviceID:   reading.DeviceID,
		RecordedAt: reading.RecordedAt,
		UsageValue: reading.UsageValue,
	})
	if err != nil {
		return UsageReading{}, storageErr("record usage", err)
	}
	reading.ID = id
	reading.RecordedAt = reading.RecordedAt.UTC()
	return reading, nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end before start", ErrInvalidInput)
	}
	return nil
}

// DeviceUsage lists one device's readings in [start, end].
func (s *DeviceService) DeviceUsage(ctx context.Context, id int64, start, end time.Time) ([]UsageReading, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.storage.GetDevice(dbCtx, id); err != nil {
		return nil, storageErr("device usage", err)
	}
	rows, err := s.storage.UsageForDevice(dbCtx, id, start, end)
	if err != nil {
		return nil, storageErr("device usage", err)
	}

	out := make([]UsageReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, UsageReading{
			ID:         r.ID,
			DeviceID:   r.DeviceID,
			RecordedAt: r.RecordedAt,
			UsageValue: r.UsageValue,
		})
	}
	return out, nil
}

// TotalUsage sums every reading in [start, end]. An empty window totals 0.
func (s *DeviceService) TotalUsage(ctx context.Context, start, end time.Time) (UsageTotal, error) {
	if err := validateWindow(start, end); err != nil {
		return UsageTotal{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := s.storage.TotalUsage(dbCtx, start, end)
	if err != nil {
		return UsageTotal{}, storageErr("total usage", err)
	}

	s.logger.Debug("fetched total usage",
		zap.Float64("total", res.Total),
		zap.Int64("count", res.Count),
		zap.Time("start", start),
		zap.Time("end", end))

	return UsageTotal{Start: start, End: end, Total: res.Total, Count: res.Count}, nil
}
