package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/godilite/energy-dashboard/internal/grpc/mocks"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		dashboard := &mocks.MockDashboardService{}
		devices := &mocks.MockDeviceService{}

		handlers := NewGRPCHandlers(dashboard, devices, zap.NewNop())

		assert.NotNil(t, handlers)
		assert.Equal(t, dashboard, handlers.dashboard)
		assert.Equal(t, devices, handlers.devices)
		assert.NotNil(t, handlers.logger)
	})

	t.Run("nil dashboard service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, &mocks.MockDeviceService{}, zap.NewNop())
		})
	})

	t.Run("nil device service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop())
		})
	})
}

// TestRequestValidation tests request validation through the actual handler methods
func TestRequestValidation(t *testing.T) {
	devices := &mocks.MockDeviceService{
		TotalUsageFunc: func(ctx context.Context, start, end time.Time) (service.UsageTotal, error) {
			return service.UsageTotal{Start: start, End: end, Total: 12.5, Count: 3}, nil
		},
	}
	handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, devices, zap.NewNop())

	t.Run("valid request", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

		req := &TimePeriodRequest{
			StartDate: timestamppb.New(start),
			EndDate:   timestamppb.New(end),
		}

		resp, err := handlers.GetTotalUsage(context.Background(), req)

		assert.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Equal(t, 12.5, resp.Total)
		assert.Equal(t, int64(3), resp.Count)
		assert.Equal(t, start, resp.Start)
	})

	t.Run("end before start", func(t *testing.T) {
		req := &TimePeriodRequest{
			StartDate: timestamppb.New(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)),
			EndDate:   timestamppb.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		}

		resp, err := handlers.GetTotalUsage(context.Background(), req)

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("missing dates", func(t *testing.T) {
		resp, err := handlers.GetTotalUsage(context.Background(), &TimePeriodRequest{
			StartDate: timestamppb.Now(),
		})

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "start and end dates are required")
	})

	t.Run("device usage needs a device", func(t *testing.T) {
		resp, err := handlers.GetDeviceUsage(context.Background(), &TimePeriodRequest{
			StartDate: timestamppb.Now(),
			EndDate:   timestamppb.Now(),
		})

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("empty range and period", func(t *testing.T) {
		_, err := handlers.GetUsage(context.Background(), &UsageRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = handlers.RefreshPeriod(context.Background(), &RefreshPeriodRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = handlers.SetDeviceStatus(context.Background(), &SetDeviceStatusRequest{On: true})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

// TestHandleError tests error handling and status code mapping
func TestHandleError(t *testing.T) {
	handlers := &GRPCHandlers{logger: zap.NewNop()}

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.Canceled, status.Code(err))
		assert.Contains(t, err.Error(), "request canceled")
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
		assert.Contains(t, err.Error(), "request timed out")
	})

	cases := []struct {
		name     string
		err      error
		code     codes.Code
		contains string
	}{
		{"invalid input", fmt.Errorf("usage: %w: bad range", service.ErrInvalidInput), codes.InvalidArgument, "bad range"},
		{"device not found", fmt.Errorf("set device status: %w", service.ErrDeviceNotFound), codes.NotFound, "device not found"},
		{"not adjustable", service.ErrNotAdjustable, codes.FailedPrecondition, "no setpoint"},
		{"setpoint out of range", service.ErrSetpointOutOfRange, codes.FailedPrecondition, "out of range"},
		{"storage failure", service.ErrStorageFailure, codes.Internal, "database error"},
		{"unknown error", errors.New("redis connection lost"), codes.Internal, "test_operation failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := handlers.handleError(context.Background(), "test_operation", tc.err)

			assert.Equal(t, tc.code, status.Code(err))
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestDashboardHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("GetMonthlyBill passes the month through", func(t *testing.T) {
		dashboard := &mocks.MockDashboardService{
			MonthlyBillFunc: func(ctx context.Context, month int) (service.MonthlyBill, error) {
				assert.Equal(t, 4, month)
				return service.MonthlyBill{Month: month, TrendText: "Same as last month"}, nil
			},
		}
		handlers := NewGRPCHandlers(dashboard, &mocks.MockDeviceService{}, zap.NewNop())

		resp, err := handlers.GetMonthlyBill(ctx, &MonthlyBillRequest{Month: 4})

		assert.NoError(t, err)
		assert.Equal(t, "Same as last month", resp.Bill.TrendText)
	})

	t.Run("GetMonthlyBill invalid month", func(t *testing.T) {
		dashboard := &mocks.MockDashboardService{
			MonthlyBillFunc: func(ctx context.Context, month int) (service.MonthlyBill, error) {
				return service.MonthlyBill{}, fmt.Errorf("monthly bill: %w: month index 12 out of range", service.ErrInvalidInput)
			},
		}
		handlers := NewGRPCHandlers(dashboard, &mocks.MockDeviceService{}, zap.NewNop())

		resp, err := handlers.GetMonthlyBill(ctx, &MonthlyBillRequest{Month: 12})

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("RefreshPeriod", func(t *testing.T) {
		dashboard := &mocks.MockDashboardService{
			RefreshPeriodFunc: func(ctx context.Context, key string) (series.Summary, error) {
				return series.Summary{Period: key, Total: 42}, nil
			},
		}
		handlers := NewGRPCHandlers(dashboard, &mocks.MockDeviceService{}, zap.NewNop())

		resp, err := handlers.RefreshPeriod(ctx, &RefreshPeriodRequest{Period: "week"})

		assert.NoError(t, err)
		assert.Equal(t, "week", resp.Summary.Period)
		assert.Equal(t, 42.0, resp.Summary.Total)
	})

	t.Run("GetQuickStats internal failure", func(t *testing.T) {
		dashboard := &mocks.MockDashboardService{
			QuickStatsFunc: func(ctx context.Context) (service.QuickStats, error) {
				return service.QuickStats{}, fmt.Errorf("quick stats: %w", service.ErrGenerateFailed)
			},
		}
		handlers := NewGRPCHandlers(dashboard, &mocks.MockDeviceService{}, zap.NewNop())

		_, err := handlers.GetQuickStats(ctx, &QuickStatsRequest{})

		assert.Equal(t, codes.Internal, status.Code(err))
	})
}

func TestDeviceHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("SetDeviceStatus unknown device", func(t *testing.T) {
		devices := &mocks.MockDeviceService{
			SetDeviceStatusFunc: func(ctx context.Context, id int64, on bool) (service.DeviceState, error) {
				return service.DeviceState{}, service.ErrDeviceNotFound
			},
		}
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, devices, zap.NewNop())

		_, err := handlers.SetDeviceStatus(ctx, &SetDeviceStatusRequest{DeviceID: 99, On: true})

		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("AdjustSetpoint out of range", func(t *testing.T) {
		devices := &mocks.MockDeviceService{
			AdjustSetpointFunc: func(ctx context.Context, id int64, delta float64) (service.DeviceState, error) {
				return service.DeviceState{}, service.ErrSetpointOutOfRange
			},
		}
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, devices, zap.NewNop())

		_, err := handlers.AdjustSetpoint(ctx, &AdjustSetpointRequest{DeviceID: 4, Delta: 20})

		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("ListDevices", func(t *testing.T) {
		devices := &mocks.MockDeviceService{
			ListDevicesFunc: func(ctx context.Context) ([]service.DeviceState, error) {
				return []service.DeviceState{{ID: 1, Name: "Living Room Lights"}}, nil
			},
		}
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, devices, zap.NewNop())

		resp, err := handlers.ListDevices(ctx, &ListDevicesRequest{})

		assert.NoError(t, err)
		assert.Len(t, resp.Devices, 1)
	})
}
