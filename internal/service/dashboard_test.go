package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/service/mocks"
	"github.com/godilite/energy-dashboard/internal/trend"
	"github.com/godilite/energy-dashboard/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var march15 = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func seriesOf(key string, values ...float64) series.Series {
	s := series.Series{Period: key}
	for i, v := range values {
		s.Points = append(s.Points, series.Point{Label: fmt.Sprint(i + 1), Value: v})
	}
	return s
}

// fixedSeries serves a canned series per period key.
func fixedSeries(byKey map[string]series.Series) *mocks.MockSeriesGenerator {
	return &mocks.MockSeriesGenerator{
		GenerateFunc: func(_ context.Context, p generator.Period) (series.Series, error) {
			s, ok := byKey[p.Key()]
			if !ok {
				return series.Series{}, fmt.Errorf("no series for %s", p.Key())
			}
			return s, nil
		},
		NowFunc: func() time.Time { return march15 },
	}
}

func TestNewDashboard(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		gen := &mocks.MockSeriesGenerator{}
		d := NewDashboard(gen, Rates{PerKWh: 0.2, CarbonPerKWh: 0.5}, zap.NewNop())

		assert.NotNil(t, d)
		assert.Equal(t, 0.2, d.rates.PerKWh)
		assert.Equal(t, 0.5, d.rates.CarbonPerKWh)
	})

	t.Run("nil generator panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewDashboard(nil, DefaultRates, zap.NewNop())
		})
	})

	t.Run("zero rates and nil logger get defaults", func(t *testing.T) {
		d := NewDashboard(&mocks.MockSeriesGenerator{}, Rates{}, nil)

		assert.NotNil(t, d.logger)
		assert.Equal(t, DefaultRates, d.rates)
	})
}

func TestMonthlyBill(t *testing.T) {
	ctx := context.Background()

	t.Run("decrease against previous month", func(t *testing.T) {
		gen := fixedSeries(map[string]series.Series{
			"bill:2": seriesOf("bill:2", 2.0, 5.0, 3.0),
			"bill:1": seriesOf("bill:1", 5.0, 5.0, 2.5),
		})
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		bill, err := d.MonthlyBill(ctx, 2)
		require.NoError(t, err)

		assert.Equal(t, 2, bill.Month)
		assert.Equal(t, 10.0, bill.Summary.Total)
		assert.Equal(t, 3.33, bill.Summary.Average)
		assert.Equal(t, 5.0, bill.Summary.PeakValue)
		assert.Equal(t, 12.5, bill.Previous.Total)
		assert.Equal(t, trend.Decrease, bill.Trend.Direction)
		assert.Equal(t, "20.0%", bill.Trend.Percent)
		assert.Equal(t, "↓ 20.0% from last month", bill.TrendText)
		assert.Equal(t, "positive", bill.Sentiment)
		assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), bill.PeakDate)
	})

	t.Run("january compares with december", func(t *testing.T) {
		var requested []string
		gen := fixedSeries(map[string]series.Series{
			"bill:0":  seriesOf("bill:0", 4, 4),
			"bill:11": seriesOf("bill:11", 4, 4),
		})
		inner := gen.GenerateFunc
		gen.GenerateFunc = func(ctx context.Context, p generator.Period) (series.Series, error) {
			requested = append(requested, p.Key())
			return inner(ctx, p)
		}
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		bill, err := d.MonthlyBill(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, []string{"bill:0", "bill:11"}, requested)
		assert.Equal(t, trend.Unchanged, bill.Trend.Direction)
		assert.Equal(t, "Same as last month", bill.TrendText)
		assert.Equal(t, "neutral", bill.Sentiment)
	})

	t.Run("month out of range", func(t *testing.T) {
		d := NewDashboard(fixedSeries(nil), DefaultRates, zap.NewNop())

		for _, m := range []int{-1, 12} {
			_, err := d.MonthlyBill(ctx, m)
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
	})

	t.Run("zero previous total", func(t *testing.T) {
		gen := fixedSeries(map[string]series.Series{
			"bill:5": seriesOf("bill:5", 1, 2),
			"bill:4": seriesOf("bill:4", 0, 0),
		})
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		_, err := d.MonthlyBill(ctx, 5)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorContains(t, err, trend.ErrZeroBaseline.Error())
	})

	t.Run("empty series", func(t *testing.T) {
		gen := fixedSeries(map[string]series.Series{"bill:5": {Period: "bill:5"}})
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		_, err := d.MonthlyBill(ctx, 5)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("generator failure", func(t *testing.T) {
		d := NewDashboard(fixedSeries(nil), DefaultRates, zap.NewNop())

		_, err := d.MonthlyBill(ctx, 3)
		assert.ErrorIs(t, err, ErrGenerateFailed)
	})
}

func TestYearlyBill(t *testing.T) {
	gen := fixedSeries(map[string]series.Series{
		"bill:year": seriesOf("bill:year", 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71),
	})
	d := NewDashboard(gen, DefaultRates, zap.NewNop())

	bill, err := d.YearlyBill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 183.0, bill.YearToDate)
	assert.Equal(t, 61.0, bill.MonthlyAverage)
	assert.Equal(t, "12", bill.HighestMonth)
	assert.Equal(t, 71.0, bill.HighestValue)
	assert.Equal(t, 12, bill.Summary.Length)
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	gen := fixedSeries(map[string]series.Series{
		"week": seriesOf("week", 1.04, 2.0, 2.96),
	})
	d := NewDashboard(gen, DefaultRates, zap.NewNop())

	t.Run("insights", func(t *testing.T) {
		u, err := d.Usage(ctx, "week")
		require.NoError(t, err)

		assert.Equal(t, "week", u.Range)
		assert.Equal(t, 3.0, u.Insights.Highest)
		assert.Equal(t, 1.0, u.Insights.Lowest)
		assert.Equal(t, 2.0, u.Insights.Average)
		assert.Equal(t, 0.3, u.Insights.DailyCost)
		assert.Equal(t, 9.0, u.Insights.MonthlyProjection)
		assert.Equal(t, 27.0, u.Insights.YearToDate)
	})

	t.Run("rejects non-range keys", func(t *testing.T) {
		for _, key := range []string{"bill:1", "bill:year", "fortnight", ""} {
			_, err := d.Usage(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidInput, key)
		}
	})
}

func TestQuickStats(t *testing.T) {
	gen := fixedSeries(map[string]series.Series{
		"day": seriesOf("day", 20.0, 30.0),
	})
	d := NewDashboard(gen, DefaultRates, zap.NewNop())

	stats, err := d.QuickStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50.0, stats.TotalEnergy)
	assert.Equal(t, 7.5, stats.Cost)
	assert.Equal(t, 20.0, stats.Carbon)
}

func TestRefreshPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates before regenerating", func(t *testing.T) {
		var calls []string
		gen := &mocks.MockSeriesGenerator{
			InvalidateFunc: func(_ context.Context, p generator.Period) error {
				calls = append(calls, "invalidate "+p.Key())
				return nil
			},
			GenerateFunc: func(_ context.Context, p generator.Period) (series.Series, error) {
				calls = append(calls, "generate "+p.Key())
				return seriesOf(p.Key(), 1, 2), nil
			},
		}
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		sum, err := d.RefreshPeriod(ctx, "bill:4")
		require.NoError(t, err)
		assert.Equal(t, 3.0, sum.Total)
		assert.Equal(t, []string{"invalidate bill:4", "generate bill:4"}, calls)
	})

	t.Run("unknown key", func(t *testing.T) {
		d := NewDashboard(&mocks.MockSeriesGenerator{}, DefaultRates, zap.NewNop())

		_, err := d.RefreshPeriod(ctx, "bill:13")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("invalidate failure", func(t *testing.T) {
		gen := &mocks.MockSeriesGenerator{
			InvalidateFunc: func(context.Context, generator.Period) error {
				return errors.New("redis down")
			},
		}
		d := NewDashboard(gen, DefaultRates, zap.NewNop())

		_, err := d.RefreshPeriod(ctx, "day")
		assert.ErrorIs(t, err, ErrGenerateFailed)
	})
}

func TestDashboardWithGenerator(t *testing.T) {
	ctx := context.Background()
	gen := generator.New(cache.NewMemory(),
		generator.WithSource(generator.NewSource(7)),
		generator.WithClock(func() time.Time { return march15 }),
	)
	d := NewDashboard(gen, DefaultRates, zap.NewNop())

	first, err := d.Recompute(ctx, generator.Week)
	require.NoError(t, err)
	again, err := d.Recompute(ctx, generator.Week)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	refreshed, err := d.Refresh(ctx, generator.Week)
	require.NoError(t, err)
	assert.NotEqual(t, first.Total, refreshed.Total)

	bill, err := d.MonthlyBill(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 28, bill.Summary.Length)
	assert.Equal(t, 31, bill.Previous.Length)
}
