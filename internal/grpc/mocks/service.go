package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service"
)

// MockDashboardService is a mock implementation of the DashboardService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockDashboardService struct {
	MonthlyBillFunc   func(ctx context.Context, month int) (service.MonthlyBill, error)
	YearlyBillFunc    func(ctx context.Context) (service.YearlyBill, error)
	UsageFunc         func(ctx context.Context, rangeKey string) (service.Usage, error)
	QuickStatsFunc    func(ctx context.Context) (service.QuickStats, error)
	RefreshPeriodFunc func(ctx context.Context, key string) (series.Summary, error)
}

func (m *MockDashboardService) MonthlyBill(ctx context.Context, month int) (service.MonthlyBill, error) {
	if m.MonthlyBillFunc != nil {
		return m.MonthlyBillFunc(ctx, month)
	}
	return service.MonthlyBill{}, errors.New("MonthlyBillFunc not implemented")
}

func (m *MockDashboardService) YearlyBill(ctx context.Context) (service.YearlyBill, error) {
	if m.YearlyBillFunc != nil {
		return m.YearlyBillFunc(ctx)
	}
	return service.YearlyBill{}, errors.New("YearlyBillFunc not implemented")
}

func (m *MockDashboardService) Usage(ctx context.Context, rangeKey string) (service.Usage, error) {
	if m.UsageFunc != nil {
		return m.UsageFunc(ctx, rangeKey)
	}
	return service.Usage{}, errors.New("UsageFunc not implemented")
}

func (m *MockDashboardService) QuickStats(ctx context.Context) (service.QuickStats, error) {
	if m.QuickStatsFunc != nil {
		return m.QuickStatsFunc(ctx)
	}
	return service.QuickStats{}, errors.New("QuickStatsFunc not implemented")
}

func (m *MockDashboardService) RefreshPeriod(ctx context.Context, key string) (series.Summary, error) {
	if m.RefreshPeriodFunc != nil {
		return m.RefreshPeriodFunc(ctx, key)
	}
	return series.Summary{}, errors.New("RefreshPeriodFunc not implemented")
}

// MockDeviceService is a mock implementation of the DeviceService interface.
type MockDeviceService struct {
	ListDevicesFunc     func(ctx context.Context) ([]service.DeviceState, error)
	SetDeviceStatusFunc func(ctx context.Context, id int64, on bool) (service.DeviceState, error)
	AdjustSetpointFunc  func(ctx context.Context, id int64, delta float64) (service.DeviceState, error)
	RecordUsageFunc     func(ctx context.Context, reading service.UsageReading) (service.UsageReading, error)
	DeviceUsageFunc     func(ctx context.Context, id int64, start, end time.Time) ([]service.UsageReading, error)
	TotalUsageFunc      func(ctx context.Context, start, end time.Time) (service.UsageTotal, error)
}

func (m *MockDeviceService) ListDevices(ctx context.Context) ([]service.DeviceState, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx)
	}
	return nil, errors.New("ListDevicesFunc not implemented")
}

func (m *MockDeviceService) SetDeviceStatus(ctx context.Context, id int64, on bool) (service.DeviceState, error) {
	if m.SetDeviceStatusFunc != nil {
		return m.SetDeviceStatusFunc(ctx, id, on)
	}
	return service.DeviceState{}, errors.New("SetDeviceStatusFunc not implemented")
}

func (m *MockDeviceService) AdjustSetpoint(ctx context.Context, id int64, delta float64) (service.DeviceState, error) {
	if m.AdjustSetpointFunc != nil {
		return m.AdjustSetpointFunc(ctx, id, delta)
	}
	return service.DeviceState{}, errors.New("AdjustSetpointFunc not implemented")
}

func (m *MockDeviceService) RecordUsage(ctx context.Context, reading service.UsageReading) (service.UsageReading, error) {
	if m.RecordUsageFunc != nil {
		return m.RecordUsageFunc(ctx, reading)
	}
	return service.UsageReading{}, errors.New("RecordUsageFunc not implemented")
}

func (m *MockDeviceService) DeviceUsage(ctx context.Context, id int64, start, end time.Time) ([]service.UsageReading, error) {
	if m.DeviceUsageFunc != nil {
		return m.DeviceUsageFunc(ctx, id, start, end)
	}
	return nil, errors.New("DeviceUsageFunc not implemented")
}

func (m *MockDeviceService) TotalUsage(ctx context.Context, start, end time.Time) (service.UsageTotal, error) {
	if m.TotalUsageFunc != nil {
		return m.TotalUsageFunc(ctx, start, end)
	}
	return service.UsageTotal{}, errors.New("TotalUsageFunc not implemented")
}
