package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/energy-dashboard/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultGRPCTimeout = 10 * time.Second

type GRPCHandlers struct {
	dashboard DashboardService
	devices   DeviceService
	logger    *zap.Logger
}

var _ DashboardServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(dashboard DashboardService, devices DeviceService, logger *zap.Logger) *GRPCHandlers {
	if dashboard == nil {
		panic("nil DashboardService provided to NewGRPCHandlers")
	}
	if devices == nil {
		panic("nil DeviceService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		dashboard: dashboard,
		devices:   devices,
		logger:    logger.Named("grpc-handler"),
	}
}

func (s *GRPCHandlers) parseAndValidate(req *TimePeriodRequest) (start, end time.Time, err error) {
	if req.GetStartDate() == nil || req.GetEndDate() == nil {
		err = status.Error(codes.InvalidArgument, "start and end dates are required")
		return
	}

	start = req.GetStartDate().AsTime()
	end = req.GetEndDate().AsTime()

	if end.Before(start) {
		err = status.Error(codes.InvalidArgument, "end date must be after start date")
		return
	}

	return
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		s.logger.Info("invalid argument", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrDeviceNotFound):
		s.logger.Info("device not found", zap.String("op", op))
		return status.Error(codes.NotFound, "device not found")
	case errors.Is(err, service.ErrNotAdjustable), errors.Is(err, service.ErrSetpointOutOfRange):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) GetMonthlyBill(ctx context.Context, req *MonthlyBillRequest) (*MonthlyBillResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	bill, err := s.dashboard.MonthlyBill(ctx, int(req.Month))
	if err != nil {
		return nil, s.handleError(ctx, "GetMonthlyBill", err)
	}
	return &MonthlyBillResponse{Bill: bill}, nil
}

func (s *GRPCHandlers) GetYearlyBill(ctx context.Context, _ *YearlyBillRequest) (*YearlyBillResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	bill, err := s.dashboard.YearlyBill(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetYearlyBill", err)
	}
	return &YearlyBillResponse{Bill: bill}, nil
}

func (s *GRPCHandlers) GetUsage(ctx context.Context, req *UsageRequest) (*UsageResponse, error) {
	if req.Range == "" {
		return nil, status.Error(codes.InvalidArgument, "range is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	usage, err := s.dashboard.Usage(ctx, req.Range)
	if err != nil {
		return nil, s.handleError(ctx, "GetUsage", err)
	}
	return &UsageResponse{Usage: usage}, nil
}

func (s *GRPCHandlers) GetQuickStats(ctx context.Context, _ *QuickStatsRequest) (*QuickStatsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	stats, err := s.dashboard.QuickStats(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetQuickStats", err)
	}
	return &QuickStatsResponse{Stats: stats}, nil
}

func (s *GRPCHandlers) RefreshPeriod(ctx context.Context, req *RefreshPeriodRequest) (*SummaryResponse, error) {
	if req.Period == "" {
		return nil, status.Error(codes.InvalidArgument, "period is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	sum, err := s.dashboard.RefreshPeriod(ctx, req.Period)
	if err != nil {
		return nil, s.handleError(ctx, "RefreshPeriod", err)
	}
	return &SummaryResponse{Summary: sum}, nil
}

func (s *GRPCHandlers) ListDevices(ctx context.Context, _ *ListDevicesRequest) (*ListDevicesResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "ListDevices", err)
	}
	return &ListDevicesResponse{Devices: devices}, nil
}

func (s *GRPCHandlers) SetDeviceStatus(ctx context.Context, req *SetDeviceStatusRequest) (*DeviceResponse, error) {
	if req.DeviceID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "device_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	d, err := s.devices.SetDeviceStatus(ctx, req.DeviceID, req.On)
	if err != nil {
		return nil, s.handleError(ctx, "SetDeviceStatus", err)
	}
	return &DeviceResponse{Device: d}, nil
}

func (s *GRPCHandlers) AdjustSetpoint(ctx context.Context, req *AdjustSetpointRequest) (*DeviceResponse, error) {
	if req.DeviceID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "device_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	d, err := s.devices.AdjustSetpoint(ctx, req.DeviceID, req.Delta)
	if err != nil {
		return nil, s.handleError(ctx, "AdjustSetpoint", err)
	}
	return &DeviceResponse{Device: d}, nil
}

func (s *GRPCHandlers) GetDeviceUsage(ctx context.Context, req *TimePeriodRequest) (*DeviceUsageResponse, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}
	if req.DeviceID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "device_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	readings, err := s.devices.DeviceUsage(ctx, req.DeviceID, start, end)
	if err != nil {
		return nil, s.handleError(ctx, "GetDeviceUsage", err)
	}
	return &DeviceUsageResponse{Readings: readings}, nil
}

func (s *GRPCHandlers) GetTotalUsage(ctx context.Context, req *TimePeriodRequest) (*TotalUsageResponse, error) {
	start, end, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	total, err := s.devices.TotalUsage(ctx, start, end)
	if err != nil {
		return nil, s.handleError(ctx, "GetTotalUsage", err)
	}
	return &TotalUsageResponse{
		Start: total.Start,
		End:   total.End,
		Total: total.Total,
		Count: total.Count,
	}, nil
}
