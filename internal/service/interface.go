package service

import (
	"context"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/repository/models"
	"github.com/godilite/energy-dashboard/internal/series"
)

// SeriesGenerator produces and memoizes mock series. *generator.Generator
// implements it.
type SeriesGenerator interface {
	Generate(ctx context.Context, p generator.Period) (series.Series, error)
	Invalidate(ctx context.Context, p generator.Period) error
	Now() time.Time
}

// DeviceRepository defines the storage operations the device service needs.
type DeviceRepository interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, id int64) (models.Device, error)
	UpdateStatus(ctx context.Context, id int64, on bool) error
	ShiftSetpoint(ctx context.Context, id int64, delta, lo, hi float64) (models.Device, error)
	InsertUsage(ctx context.Context, reading models.UsageReading) (int64, error)
	UsageForDevice(ctx context.Context, deviceID int64, start, end time.Time) ([]models.UsageReading, error)
	TotalUsage(ctx context.Context, start, end time.Time) (models.UsageTotal, error)
}

// CommandPublisher forwards device state changes to the devices themselves.
type CommandPublisher interface {
	PublishStatus(ctx context.Context, device models.Device) error
	PublishSetpoint(ctx context.Context, device models.Device) error
}
