package grpc

import (
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type MonthlyBillRequest struct {
	Month int32 `json:"month"`
}

type MonthlyBillResponse struct {
	Bill service.MonthlyBill `json:"bill"`
}

type YearlyBillRequest struct{}

type YearlyBillResponse struct {
	Bill service.YearlyBill `json:"bill"`
}

type UsageRequest struct {
	Range string `json:"range"`
}

type UsageResponse struct {
	Usage service.Usage `json:"usage"`
}

type QuickStatsRequest struct{}

type QuickStatsResponse struct {
	Stats service.QuickStats `json:"stats"`
}

type RefreshPeriodRequest struct {
	Period string `json:"period"`
}

type SummaryResponse struct {
	Summary series.Summary `json:"summary"`
}

type ListDevicesRequest struct{}

type ListDevicesResponse struct {
	Devices []service.DeviceState `json:"devices"`
}

type SetDeviceStatusRequest struct {
	DeviceID int64 `json:"device_id"`
	On       bool  `json:"on"`
}

type AdjustSetpointRequest struct {
	DeviceID int64   `json:"device_id"`
	Delta    float64 `json:"delta"`
}

type DeviceResponse struct {
	Device service.DeviceState `json:"device"`
}

// TimePeriodRequest selects readings in [start_date, end_date]. DeviceID is
// only read by GetDeviceUsage.
type TimePeriodRequest struct {
	DeviceID  int64                  `json:"device_id,omitempty"`
	StartDate *timestamppb.Timestamp `json:"start_date"`
	EndDate   *timestamppb.Timestamp `json:"end_date"`
}

func (r *TimePeriodRequest) GetStartDate() *timestamppb.Timestamp {
	if r == nil {
		return nil
	}
	return r.StartDate
}

func (r *TimePeriodRequest) GetEndDate() *timestamppb.Timestamp {
	if r == nil {
		return nil
	}
	return r.EndDate
}

type DeviceUsageResponse struct {
	Readings []service.UsageReading `json:"readings"`
}

type TotalUsageResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Total float64   `json:"total"`
	Count int64     `json:"count"`
}
