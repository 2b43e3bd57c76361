package mocks

import (
	"context"
	"sync"

	"github.com/godilite/energy-dashboard/internal/repository/models"
)

// MockCommandPublisher records published devices and returns Err.
type MockCommandPublisher struct {
	mu        sync.Mutex
	Err       error
	Statuses  []models.Device
	Setpoints []models.Device
}

func (m *MockCommandPublisher) PublishStatus(_ context.Context, d models.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, d)
	return m.Err
}

func (m *MockCommandPublisher) PublishSetpoint(_ context.Context, d models.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Setpoints = append(m.Setpoints, d)
	return m.Err
}
