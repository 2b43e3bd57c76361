// Package scheduler periodically refreshes the dashboard's periods and hands
// the new summaries to renderers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = 5 * time.Second
	refreshTimeout  = 3 * time.Second
	renderTimeout   = 2 * time.Second
	maxParallel     = 4
)

// Refresher regenerates one period and returns its summary.
// *service.Dashboard implements it.
type Refresher interface {
	Refresh(ctx context.Context, p generator.Period) (series.Summary, error)
}

// Snapshot is one refreshed period as delivered to renderers. Every snapshot
// of a tick shares its TickID.
type Snapshot struct {
	TickID      string         `json:"tick_id"`
	Period      string         `json:"period"`
	Summary     series.Summary `json:"summary"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Renderer delivers snapshots somewhere: connected browsers, a topic, a log.
type Renderer interface {
	Name() string
	Render(ctx context.Context, snap Snapshot) error
}

type Observer interface {
	TickCompleted(d time.Duration)
	RenderFailed(renderer string)
}

type nopObserver struct{}

func (nopObserver) TickCompleted(time.Duration) {}
func (nopObserver) RenderFailed(string)         {}

type Scheduler struct {
	refresher Refresher
	renderers []Renderer
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	observer  Observer
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

func WithRenderers(r ...Renderer) Option {
	return func(s *Scheduler) { s.renderers = append(s.renderers, r...) }
}

func New(refresher Refresher, opts ...Option) *Scheduler {
	if refresher == nil {
		panic("nil Refresher provided to scheduler.New")
	}
	s := &Scheduler{
		refresher: refresher,
		interval:  DefaultInterval,
		now:       time.Now,
		logger:    zap.NewNop(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("scheduler")
	return s
}

// Jobs lists the periods refreshed on a tick: the current month's bill and
// every usage range.
func (s *Scheduler) Jobs() []generator.Period {
	bill, _ := generator.BillMonth(int(s.now().Month()) - 1)
	return append([]generator.Period{bill}, generator.Ranges...)
}

// Tick refreshes every job and renders the results in job order. A failed
// refresh skips that job; a failed render is logged and counted. Neither
// stops the tick.
func (s *Scheduler) Tick(ctx context.Context) []Snapshot {
	start := time.Now()
	tickID := uuid.NewString()
	jobs := s.Jobs()
	logger := s.logger.With(zap.String("tick_id", tickID))

	results := make([]*Snapshot, len(jobs))
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, p := range jobs {
		i, p := i, p
		g.Go(func() error {
			refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()

			sum, err := s.refresher.Refresh(refreshCtx, p)
			if err != nil {
				logger.Warn("refresh failed", zap.String("period", p.Key()), zap.Error(err))
				return nil
			}
			results[i] = &Snapshot{
				TickID:      tickID,
				Period:      p.Key(),
				Summary:     sum,
				GeneratedAt: s.now(),
			}
			return nil
		})
	}
	_ = g.Wait()

	var delivered []Snapshot
	for _, snap := range results {
		if snap == nil {
			continue
		}
		s.render(ctx, logger, *snap)
		delivered = append(delivered, *snap)
	}

	elapsed := time.Since(start)
	s.observer.TickCompleted(elapsed)
	logger.Debug("tick completed",
		zap.Int("jobs", len(jobs)),
		zap.Int("delivered", len(delivered)),
		zap.Duration("duration", elapsed))
	return delivered
}

func (s *Scheduler) render(ctx context.Context, logger *zap.Logger, snap Snapshot) {
	for _, r := range s.renderers {
		if err := s.renderOne(ctx, r, snap); err != nil {
			s.observer.RenderFailed(r.Name())
			logger.Warn("render failed",
				zap.String("renderer", r.Name()),
				zap.String("period", snap.Period),
				zap.Error(err))
		}
	}
}

func (s *Scheduler) renderOne(ctx context.Context, r Renderer, snap Snapshot) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("renderer panic: %v", rec)
		}
	}()
	renderCtx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()
	return r.Render(renderCtx, snap)
}

// Run ticks once immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
