package httpapi

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterConfig collects the pieces mounted on the HTTP surface. Metrics and
// Hub are optional.
type RouterConfig struct {
	Handlers *Handlers
	Hub      *Hub
	Metrics  http.Handler
	Observer RequestObserver
	Logger   *zap.Logger
}

// NewRouter builds the HTTP API wrapped in CORS and panic recovery.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")
	h := cfg.Handlers

	r := mux.NewRouter()
	r.Use(requestID, accessLog(logger, cfg.Observer))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	if cfg.Hub != nil {
		r.Handle("/ws", cfg.Hub).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/bills/monthly/{month:[0-9]+}", h.MonthlyBill).Methods(http.MethodGet)
	api.HandleFunc("/bills/monthly/{month:[0-9]+}/refresh", h.RefreshMonthlyBill).Methods(http.MethodPost)
	api.HandleFunc("/bills/yearly", h.YearlyBill).Methods(http.MethodGet)
	api.HandleFunc("/usage/{range}", h.Usage).Methods(http.MethodGet)
	api.HandleFunc("/periods/{key}/refresh", h.RefreshPeriod).Methods(http.MethodPost)
	api.HandleFunc("/stats/quick", h.QuickStats).Methods(http.MethodGet)
	api.HandleFunc("/devices", h.ListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/status", h.SetDeviceStatus).Methods(http.MethodPut)
	api.HandleFunc("/devices/{id}/setpoint", h.AdjustSetpoint).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}/usage", h.DeviceUsage).Methods(http.MethodGet)
	api.HandleFunc("/usage-readings", h.RecordUsage).Methods(http.MethodPost)
	api.HandleFunc("/usage-total", h.TotalUsage).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}
