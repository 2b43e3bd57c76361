package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/energy-dashboard/internal/generator"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/trend"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	generateTimeout = 3 * time.Second
	daysPerMonth    = 30
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrGenerateFailed = errors.New("series generation failed")
)

// Rates converts energy into money and emissions.
type Rates struct {
	PerKWh       float64
	CarbonPerKWh float64
}

// DefaultRates are the tariffs the dashboard shows when none are configured.
var DefaultRates = Rates{PerKWh: 0.15, CarbonPerKWh: 0.4}

// Dashboard computes the bill, usage and stats views from generated series.
type Dashboard struct {
	gen    SeriesGenerator
	rates  Rates
	logger *zap.Logger
}

// NewDashboard creates a new Dashboard instance.
func NewDashboard(gen SeriesGenerator, rates Rates, logger *zap.Logger) *Dashboard {
	if gen == nil {
		panic("generator must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if rates.PerKWh <= 0 {
		rates.PerKWh = DefaultRates.PerKWh
	}
	if rates.CarbonPerKWh <= 0 {
		rates.CarbonPerKWh = DefaultRates.CarbonPerKWh
	}
	return &Dashboard{
		gen:    gen,
		rates:  rates,
		logger: logger.Named("dashboard"),
	}
}

// classify maps lower-layer validation errors onto ErrInvalidInput.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, generator.ErrInvalidPeriod),
		errors.Is(err, series.ErrEmptySeries),
		errors.Is(err, trend.ErrZeroBaseline):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidInput, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrGenerateFailed, err)
	}
}

func (d *Dashboard) load(ctx context.Context, p generator.Period) (series.Series, series.Summary, error) {
	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	s, err := d.gen.Generate(genCtx, p)
	if err != nil {
		return series.Series{}, series.Summary{}, err
	}
	sum, err := series.Summarize(s)
	if err != nil {
		return series.Series{}, series.Summary{}, err
	}
	return s, sum, nil
}

// Recompute summarizes the (possibly cached) series for p.
func (d *Dashboard) Recompute(ctx context.Context, p generator.Period) (series.Summary, error) {
	_, sum, err := d.load(ctx, p)
	if err != nil {
		return series.Summary{}, classify("recompute "+p.Key(), err)
	}
	return sum, nil
}

// Refresh drops the cached series for p and summarizes a freshly generated one.
func (d *Dashboard) Refresh(ctx context.Context, p generator.Period) (series.Summary, error) {
	if err := d.gen.Invalidate(ctx, p); err != nil {
		return series.Summary{}, classify("invalidate "+p.Key(), err)
	}
	return d.Recompute(ctx, p)
}

// RefreshPeriod parses key and refreshes that period.
func (d *Dashboard) RefreshPeriod(ctx context.Context, key string) (series.Summary, error) {
	p, err := generator.ParsePeriod(key)
	if err != nil {
		return series.Summary{}, classify("refresh", err)
	}
	sum, err := d.Refresh(ctx, p)
	if err != nil {
		return series.Summary{}, err
	}
	d.logger.Info("period refreshed",
		zap.String("period", p.Key()),
		zap.Float64("total", sum.Total))
	return sum, nil
}

// MonthlyBill returns the daily bill for month (0 = January) compared with the
// month before it. January is compared with December.
func (d *Dashboard) MonthlyBill(ctx context.Context, month int) (MonthlyBill, error) {
	p, err := generator.BillMonth(month)
	if err != nil {
		return MonthlyBill{}, classify("monthly bill", err)
	}

	s, sum, err := d.load(ctx, p)
	if err != nil {
		return MonthlyBill{}, classify("monthly bill "+p.Key(), err)
	}

	prevPeriod, _ := p.Previous()
	_, prev, err := d.load(ctx, prevPeriod)
	if err != nil {
		return MonthlyBill{}, classify("monthly bill "+prevPeriod.Key(), err)
	}

	tr, err := trend.Compare(sum.Total, prev.Total)
	if err != nil {
		return MonthlyBill{}, classify("monthly bill trend", err)
	}

	now := d.gen.Now()
	return MonthlyBill{
		Month:     month,
		Series:    s,
		Summary:   sum,
		Previous:  prev,
		Trend:     tr,
		TrendText: tr.Text("month"),
		Sentiment: tr.Sentiment(),
		PeakDate:  time.Date(now.Year(), time.Month(month+1), sum.PeakPosition+1, 0, 0, 0, 0, now.Location()),
	}, nil
}

// YearlyBill returns the monthly bills of the current year with the
// year-to-date total up to and including the current month.
func (d *Dashboard) YearlyBill(ctx context.Context) (YearlyBill, error) {
	s, sum, err := d.load(ctx, generator.BillYear)
	if err != nil {
		return YearlyBill{}, classify("yearly bill", err)
	}

	elapsed := int(d.gen.Now().Month())
	ytd := decimal.Zero
	for _, v := range s.Values()[:elapsed] {
		ytd = ytd.Add(decimal.NewFromFloat(v))
	}
	ytdF, _ := ytd.Round(2).Float64()
	avgF, _ := ytd.DivRound(decimal.NewFromInt(int64(elapsed)), 2).Float64()

	return YearlyBill{
		Series:         s,
		Summary:        sum,
		YearToDate:     ytdF,
		MonthlyAverage: avgF,
		HighestMonth:   sum.PeakLabel,
		HighestValue:   sum.PeakValue,
	}, nil
}

// Usage returns one of the day/week/month/year usage views with cost
// projections at the configured tariff.
func (d *Dashboard) Usage(ctx context.Context, rangeKey string) (Usage, error) {
	p, err := generator.ParseRange(rangeKey)
	if err != nil {
		return Usage{}, classify("usage", err)
	}

	s, sum, err := d.load(ctx, p)
	if err != nil {
		return Usage{}, classify("usage "+p.Key(), err)
	}

	return Usage{
		Range:    p.Key(),
		Series:   s,
		Summary:  sum,
		Insights: d.insights(s, sum),
	}, nil
}

func (d *Dashboard) insights(s series.Series, sum series.Summary) UsageInsights {
	total := decimal.Zero
	for _, v := range s.Values() {
		total = total.Add(decimal.NewFromFloat(v))
	}
	avg := total.Div(decimal.NewFromInt(int64(s.Len())))

	daily := avg.Mul(decimal.NewFromFloat(d.rates.PerKWh))
	monthly := daily.Mul(decimal.NewFromInt(daysPerMonth))
	elapsed := decimal.NewFromInt(int64(d.gen.Now().Month()))
	ytd := monthly.Mul(decimal.NewFromInt(12)).Mul(elapsed).Div(decimal.NewFromInt(12))

	f := func(v decimal.Decimal, places int32) float64 {
		out, _ := v.Round(places).Float64()
		return out
	}
	return UsageInsights{
		Highest:           series.Round(sum.PeakValue, 1),
		Lowest:            series.Round(sum.MinValue, 1),
		Average:           f(avg, 1),
		DailyCost:         f(daily, 2),
		MonthlyProjection: f(monthly, 2),
		YearToDate:        f(ytd, 2),
	}
}

// QuickStats derives today's totals from the day series.
func (d *Dashboard) QuickStats(ctx context.Context) (QuickStats, error) {
	_, sum, err := d.load(ctx, generator.Day)
	if err != nil {
		return QuickStats{}, classify("quick stats", err)
	}

	total := decimal.NewFromFloat(sum.Total)
	cost, _ := total.Mul(decimal.NewFromFloat(d.rates.PerKWh)).Round(2).Float64()
	carbon, _ := total.Mul(decimal.NewFromFloat(d.rates.CarbonPerKWh)).Round(1).Float64()

	return QuickStats{
		TotalEnergy: series.Round(sum.Total, 1),
		Cost:        cost,
		Carbon:      carbon,
	}, nil
}
