// Package generator produces mock energy series for calendar periods and
// memoizes them in an explicit cache owned by the caller.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultCacheTimeout = 2 * time.Second

// Cache stores generated series by key. Get must return cache.ErrMiss for
// absent keys.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Observer receives cache and generation events. metrics.Metrics implements it.
type Observer interface {
	CacheHit(period string)
	CacheMiss(period string)
	Generated(period string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)  {}
func (nopObserver) CacheMiss(string) {}
func (nopObserver) Generated(string) {}

type Generator struct {
	cache    Cache
	source   Source
	now      func() time.Time
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
	sfGroup  singleflight.Group
}

type Option func(*Generator)

func WithSource(src Source) Option {
	return func(g *Generator) { g.source = src }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithTTL bounds how long a generated series stays cached. Zero keeps it
// until it is invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(g *Generator) { g.ttl = ttl }
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(g *Generator) { g.observer = o }
}

// New returns a Generator that memoizes into c.
func New(c Cache, opts ...Option) *Generator {
	if c == nil {
		panic("nil Cache provided to generator.New")
	}
	g := &Generator{
		cache:    c,
		now:      time.Now,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.source == nil {
		g.source = NewSource(0)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	g.logger = g.logger.Named("generator")
	return g
}

// Now returns the generator's clock reading.
func (g *Generator) Now() time.Time {
	return g.now()
}

// cacheKey scopes a series to the calendar it was built for: bill series
// depend on the year, the month range on the current month.
func cacheKey(p Period, now time.Time) string {
	if p.Kind == KindMonth {
		return fmt.Sprintf("series:%d-%02d:%s", now.Year(), int(now.Month()), p.Key())
	}
	return fmt.Sprintf("series:%d:%s", now.Year(), p.Key())
}

// Generate returns the series for p, generating it on a cache miss. Concurrent
// misses for the same key share one generation.
func (g *Generator) Generate(ctx context.Context, p Period) (series.Series, error) {
	now := g.now()
	prof, err := profileFor(p, now)
	if err != nil {
		return series.Series{}, err
	}

	key := cacheKey(p, now)

	var cached series.Series
	getCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	err = g.cache.Get(getCtx, key, &cached)
	cancel()

	switch {
	case err == nil:
		g.logger.Debug("cache hit", zap.String("key", key))
		g.observer.CacheHit(p.Key())
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
		g.logger.Debug("cache miss", zap.String("key", key))
	default:
		g.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}
	g.observer.CacheMiss(p.Key())

	v, err, shared := g.sfGroup.Do(key, func() (any, error) {
		// A flight that finished between our Get and Do has already stored a
		// series; regenerating would hand out two different ones.
		var stored series.Series
		recheckCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
		err := g.cache.Get(recheckCtx, key, &stored)
		cancel()
		if err == nil {
			return stored, nil
		}

		s := g.build(p, prof)
		g.observer.Generated(p.Key())

		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultCacheTimeout)
		defer cancel()
		if err := g.cache.Set(setCtx, key, s, g.ttl); err != nil {
			g.logger.Warn("failed to cache generated series", zap.String("key", key), zap.Error(err))
		}
		return s, nil
	})
	if err != nil {
		return series.Series{}, err
	}

	s, ok := v.(series.Series)
	if !ok {
		return series.Series{}, fmt.Errorf("type mismatch for key %q", key)
	}
	if shared {
		g.logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return s.Clone(), nil
}

// Invalidate drops the cached series for p so the next Generate produces a
// fresh one.
func (g *Generator) Invalidate(ctx context.Context, p Period) error {
	now := g.now()
	if _, err := profileFor(p, now); err != nil {
		return err
	}
	key := cacheKey(p, now)
	if err := g.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	g.logger.Debug("cache invalidated", zap.String("key", key))
	return nil
}

func (g *Generator) build(p Period, prof profile) series.Series {
	points := make([]series.Point, prof.length)
	for i := range points {
		points[i] = series.Point{
			Label: prof.label(i),
			Value: series.Round(prof.base(i)+g.source.Float64()*prof.spread, 2),
		}
	}
	return series.Series{Period: p.Key(), Points: points}
}
