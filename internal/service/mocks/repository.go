package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/energy-dashboard/internal/repository/models"
)

// MockDeviceRepository is a mock implementation of the DeviceRepository interface
// for testing the service layer.
type MockDeviceRepository struct {
	ListDevicesFunc    func(ctx context.Context) ([]models.Device, error)
	GetDeviceFunc      func(ctx context.Context, id int64) (models.Device, error)
	UpdateStatusFunc   func(ctx context.Context, id int64, on bool) error
	ShiftSetpointFunc  func(ctx context.Context, id int64, delta, lo, hi float64) (models.Device, error)
	InsertUsageFunc    func(ctx context.Context, reading models.UsageReading) (int64, error)
	UsageForDeviceFunc func(ctx context.Context, deviceID int64, start, end time.Time) ([]models.UsageReading, error)
	TotalUsageFunc     func(ctx context.Context, start, end time.Time) (models.UsageTotal, error)
}

func (m *MockDeviceRepository) ListDevices(ctx context.Context) ([]models.Device, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx)
	}
	return nil, errors.New("ListDevicesFunc not implemented")
}

func (m *MockDeviceRepository) GetDevice(ctx context.Context, id int64) (models.Device, error) {
	if m.GetDeviceFunc != nil {
		return m.GetDeviceFunc(ctx, id)
	}
	return models.Device{}, errors.New("GetDeviceFunc not implemented")
}

func (m *MockDeviceRepository) UpdateStatus(ctx context.Context, id int64, on bool) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, on)
	}
	return errors.New("UpdateStatusFunc not implemented")
}

func (m *MockDeviceRepository) ShiftSetpoint(ctx context.Context, id int64, delta, lo, hi float64) (models.Device, error) {
	if m.ShiftSetpointFunc != nil {
		return m.ShiftSetpointFunc(ctx, id, delta, lo, hi)
	}
	return models.Device{}, errors.New("ShiftSetpointFunc not implemented")
}

func (m *MockDeviceRepository) InsertUsage(ctx context.Context, reading models.UsageReading) (int64, error) {
	if m.InsertUsageFunc != nil {
		return m.InsertUsageFunc(ctx, reading)
	}
	return 0, errors.New("InsertUsageFunc not implemented")
}

func (m *MockDeviceRepository) UsageForDevice(ctx context.Context, deviceID int64, start, end time.Time) ([]models.UsageReading, error) {
	if m.UsageForDeviceFunc != nil {
		return m.UsageForDeviceFunc(ctx, deviceID, start, end)
	}
	return nil, errors.New("UsageForDeviceFunc not implemented")
}

func (m *MockDeviceRepository) TotalUsage(ctx context.Context, start, end time.Time) (models.UsageTotal, error) {
	if m.TotalUsageFunc != nil {
		return m.TotalUsageFunc(ctx, start, end)
	}
	return models.UsageTotal{}, errors.New("TotalUsageFunc not implemented")
}
