package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/series"
)

// MockSeriesGenerator is a mock implementation of the SeriesGenerator interface.
type MockSeriesGenerator struct {
	GenerateFunc   func(ctx context.Context, p generator.Period) (series.Series, error)
	InvalidateFunc func(ctx context.Context, p generator.Period) error
	NowFunc        func() time.Time
}

func (m *MockSeriesGenerator) Generate(ctx context.Context, p generator.Period) (series.Series, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, p)
	}
	return series.Series{}, errors.New("GenerateFunc not implemented")
}

func (m *MockSeriesGenerator) Invalidate(ctx context.Context, p generator.Period) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, p)
	}
	return nil
}

func (m *MockSeriesGenerator) Now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now()
}
