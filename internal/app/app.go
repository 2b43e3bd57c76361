package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/godilite/energy-dashboard/internal/config"
	"github.com/godilite/energy-dashboard/internal/generator"
	handler "github.com/godilite/energy-dashboard/internal/grpc"
	"github.com/godilite/energy-dashboard/internal/httpapi"
	"github.com/godilite/energy-dashboard/internal/metrics"
	"github.com/godilite/energy-dashboard/internal/publish"
	"github.com/godilite/energy-dashboard/internal/repository"
	"github.com/godilite/energy-dashboard/internal/scheduler"
	"github.com/godilite/energy-dashboard/internal/service"
	"github.com/godilite/energy-dashboard/pkg/cache"
	dbbuilder "github.com/godilite/energy-dashboard/pkg/database"
	grpcsrv "github.com/godilite/energy-dashboard/pkg/grpc/server"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type seriesCache interface {
	generator.Cache
	io.Closer
}

type App struct {
	logger     *zap.Logger
	db         *sqlx.DB
	cache      seriesCache
	metrics    *metrics.Metrics
	grpcServer *grpcsrv.Server
	httpServer *http.Server
	httpLis    net.Listener
	scheduler  *scheduler.Scheduler
	hub        *httpapi.Hub
	closers    []func() error
}

type options struct {
	grpcListener net.Listener
	httpListener net.Listener
	now          func() time.Time
}

type Option func(*options)

// WithGRPCListener serves gRPC on lis instead of GRPC_PORT.
func WithGRPCListener(lis net.Listener) Option {
	return func(o *options) { o.grpcListener = lis }
}

// WithHTTPListener serves HTTP on lis instead of HTTP_ADDR.
func WithHTTPListener(lis net.Listener) Option {
	return func(o *options) { o.httpListener = lis }
}

// WithClock overrides the wall clock used for generation and scheduling.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{logger: logger, metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	if cfg.DBDriver == "sqlite3" && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("database directory: %w", err)
		}
	}
	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithMigrations(repository.Migrate),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	a.db = db
	logger.Info("Database pool initialized", zap.String("driver", cfg.DBDriver))

	repo := repository.NewDeviceRepository(db)
	seeded, err := repo.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed devices: %w", err)
	}
	if seeded > 0 {
		logger.Info("Device registry seeded", zap.Int("devices", seeded))
	}

	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := cache.NewRedis(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
		)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		a.cache = rc
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	default:
		a.cache = cache.NewMemory()
		logger.Info("In-memory cache initialized")
	}

	src := generator.NewSource(cfg.RandomSeed)
	gen := generator.New(a.cache,
		generator.WithSource(src),
		generator.WithClock(o.now),
		generator.WithTTL(cfg.CacheTTL),
		generator.WithLogger(logger),
		generator.WithObserver(a.metrics),
	)
	dashboard := service.NewDashboard(gen, service.Rates{PerKWh: cfg.RatePerKWh, CarbonPerKWh: cfg.CarbonPerKWh}, logger)

	var publisher service.CommandPublisher
	if cfg.MQTTBroker != "" {
		client, err := publish.ConnectMQTT(cfg.MQTTBroker, "energy-dashboard-"+uuid.NewString()[:8], logger)
		if err != nil {
			return nil, fmt.Errorf("mqtt init failed: %w", err)
		}
		a.closers = append(a.closers, func() error { client.Disconnect(250); return nil })
		publisher = publish.NewDevicePublisher(client, cfg.MQTTTopicPrefix, logger)
		logger.Info("MQTT publisher connected", zap.String("broker", cfg.MQTTBroker))
	}
	devices := service.NewDeviceService(repo, publisher, src, logger)

	grpcOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	}
	if o.grpcListener != nil {
		grpcOpts = append(grpcOpts, grpcsrv.WithListener(o.grpcListener))
	}
	grpcServer, err := grpcsrv.New(grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}
	grpcHandlers := handler.NewGRPCHandlers(dashboard, devices, logger)
	grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterDashboardServer(s, grpcHandlers)
	})
	a.grpcServer = grpcServer

	a.hub = httpapi.NewHub(logger, a.metrics)
	renderers := []scheduler.Renderer{scheduler.NewLogRenderer(logger), a.hub}
	if len(cfg.KafkaBrokers) > 0 {
		w, err := publish.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka init failed: %w", err)
		}
		kr := publish.NewKafkaRenderer(w, logger)
		a.closers = append(a.closers, kr.Close)
		renderers = append(renderers, kr)
		logger.Info("Kafka renderer enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	a.scheduler = scheduler.New(dashboard,
		scheduler.WithInterval(cfg.RefreshInterval),
		scheduler.WithClock(o.now),
		scheduler.WithLogger(logger),
		scheduler.WithObserver(a.metrics),
		scheduler.WithRenderers(renderers...),
	)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handlers: httpapi.NewHandlers(dashboard, devices, logger),
		Hub:      a.hub,
		Metrics:  a.metrics.Handler(),
		Observer: a.metrics,
		Logger:   logger,
	})
	a.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.httpLis = o.httpListener

	ok = true
	return a, nil
}

// Run starts every server plus the refresh scheduler and blocks until ctx is
// canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")
	defer a.closeResources()

	a.grpcServer.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server starting", zap.String("addr", a.httpServer.Addr))
		var err error
		if a.httpLis != nil {
			err = a.httpServer.Serve(a.httpLis)
		} else {
			err = a.httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("application shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.hub.Close()
		var errs []error
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if err != nil {
		a.logger.Error("application stopped with error", zap.Error(err))
		return err
	}
	a.logger.Info("graceful shutdown completed successfully")
	return nil
}

func (a *App) closeResources() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("shutdown error", zap.Error(err))
		}
	}
	a.closers = nil
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
		a.cache = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
		a.db = nil
	}
}
