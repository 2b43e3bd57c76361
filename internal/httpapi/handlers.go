package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxBodyBytes       = 1 << 20
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
	RecordUsage(ctx context.Context, reading service.UsageReading) (service.UsageReading, error)
	DeviceUsage(ctx context.Context, id int64, start, end time.Time) ([]service.UsageReading, error)
	TotalUsage(ctx context.Context, start, end time.Time) (service.UsageTotal, error)
}

type Handlers struct {
	dashboard DashboardService
	devices   DeviceService
	logger    *zap.Logger
}

func NewHandlers(dashboard DashboardService, devices DeviceService, logger *zap.Logger) *Handlers {
	if dashboard == nil {
		panic("nil DashboardService provided to NewHandlers")
	}
	if devices == nil {
		panic("nil DeviceService provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{dashboard: dashboard, devices: devices, logger: logger.Named("http-handler")}
}

type errorBody struct {
	Error string `json:"error"`
}

type statusRequest struct {
	On bool `json:"on"`
}

type setpointRequest struct {
	Delta float64 `json:"delta"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was written.
const statusClientClosedRequest = 499

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, msg := http.StatusInternalServerError, op+" failed"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(r.Context().Err(), context.Canceled):
		code, msg = statusClientClosedRequest, "request canceled"
	case errors.Is(err, service.ErrInvalidInput):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDeviceNotFound):
		code, msg = http.StatusNotFound, "device not found"
	case errors.Is(err, service.ErrNotAdjustable), errors.Is(err, service.ErrSetpointOutOfRange):
		code, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrStorageFailure):
		msg = "database error"
	case errors.Is(err, context.DeadlineExceeded):
		code, msg = http.StatusGatewayTimeout, "request timed out"
	}

	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf(format, args...)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid device id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

// window reads the inclusive [start, end] query parameters as RFC 3339.
func window(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		return start, end, errors.New("start and end are required")
	}
	if start, err = time.Parse(time.RFC3339, q.Get("start")); err != nil {
		return start, end, fmt.Errorf("invalid start: %w", err)
	}
	if end, err = time.Parse(time.RFC3339, q.Get("end")); err != nil {
		return start, end, fmt.Errorf("invalid end: %w", err)
	}
	return start, end, nil
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) MonthlyBill(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(mux.Vars(r)["month"])
	if err != nil {
		badRequest(w, "invalid month %q", mux.Vars(r)["month"])
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	bill, err := h.dashboard.MonthlyBill(ctx, month)
	if err != nil {
		h.writeError(w, r, "monthly bill", err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// RefreshMonthlyBill regenerates one month and returns the new bill.
func (h *Handlers) RefreshMonthlyBill(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(mux.Vars(r)["month"])
	if err != nil {
		badRequest(w, "invalid month %q", mux.Vars(r)["month"])
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	if _, err := h.dashboard.RefreshPeriod(ctx, "bill:"+strconv.Itoa(month)); err != nil {
		h.writeError(w, r, "refresh monthly bill", err)
		return
	}
	bill, err := h.dashboard.MonthlyBill(ctx, month)
	if err != nil {
		h.writeError(w, r, "monthly bill", err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handlers) YearlyBill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	bill, err := h.dashboard.YearlyBill(ctx)
	if err != nil {
		h.writeError(w, r, "yearly bill", err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	usage, err := h.dashboard.Usage(ctx, mux.Vars(r)["range"])
	if err != nil {
		h.writeError(w, r, "usage", err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *Handlers) RefreshPeriod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	sum, err := h.dashboard.RefreshPeriod(ctx, mux.Vars(r)["key"])
	if err != nil {
		h.writeError(w, r, "refresh period", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handlers) QuickStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	stats, err := h.dashboard.QuickStats(ctx)
	if err != nil {
		h.writeError(w, r, "quick stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	devices, err := h.devices.ListDevices(ctx)
	if err != nil {
		h.writeError(w, r, "list devices", err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *Handlers) SetDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	d, err := h.devices.SetDeviceStatus(ctx, id, req.On)
	if err != nil {
		h.writeError(w, r, "set device status", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) AdjustSetpoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	var req setpointRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	d, err := h.devices.AdjustSetpoint(ctx, id, req.Delta)
	if err != nil {
		h.writeError(w, r, "adjust setpoint", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var req service.UsageReading
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	if req.DeviceID <= 0 {
		badRequest(w, "device_id is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	stored, err := h.devices.RecordUsage(ctx, req)
	if err != nil {
		h.writeError(w, r, "record usage", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handlers) DeviceUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	start, end, err := window(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	readings, err := h.devices.DeviceUsage(ctx, id, start, end)
	if err != nil {
		h.writeError(w, r, "device usage", err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (h *Handlers) TotalUsage(w http.ResponseWriter, r *http.Request) {
	start, end, err := window(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	total, err := h.devices.TotalUsage(ctx, start, end)
	if err != nil {
		h.writeError(w, r, "total usage", err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}
