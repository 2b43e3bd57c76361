package grpc

import (
	"context"
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service"
)

type DashboardService interface {
	MonthlyBill(ctx context.Context, month int) (service.MonthlyBill, error)
	YearlyBill(ctx context.Context) (service.YearlyBill, error)
	Usage(ctx context.Context, rangeKey string) (service.Usage, error)
	QuickStats(ctx context.Context) (service.QuickStats, error)
	RefreshPeriod(ctx context.Context, key string) (series.Summary, error)
}

type DeviceService interface {
	ListDevices(ctx context.Context) ([]service.DeviceState, error)
	SetDeviceStatus(ctx context.Context, id int64, on bool) (service.DeviceState, error)
	AdjustSetpoint(ctx context.Context, id int64, delta float64) (service.DeviceState, error)
	DeviceUsage(ctx context.Context, id int64, start, end time.Time) ([]service.UsageReading, error)
	TotalUsage(ctx context.Context, start, end time.Time) (service.UsageTotal, error)
}
