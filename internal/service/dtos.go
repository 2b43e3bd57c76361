package service

import (
	"time"

	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/godilite/energy-dashboard/internal/trend"
)

type MonthlyBill struct {
	Month     int            `json:"month"`
	Series    series.Series  `json:"series"`
	Summary   series.Summary `json:"summary"`
	Previous  series.Summary `json:"previous"`
	Trend     trend.Result   `json:"trend"`
	TrendText string         `json:"trend_text"`
	Sentiment string         `json:"sentiment"`
	PeakDate  time.Time      `json:"peak_date"`
}

type YearlyBill struct {
	Series         series.Series  `json:"series"`
	Summary        series.Summary `json:"summary"`
	YearToDate     float64        `json:"year_to_date"`
	MonthlyAverage float64        `json:"monthly_average"`
	HighestMonth   string         `json:"highest_month"`
	HighestValue   float64        `json:"highest_value"`
}

type UsageInsights struct {
	Highest           float64 `json:"highest"`
	Lowest            float64 `json:"lowest"`
	Average           float64 `json:"average"`
	DailyCost         float64 `json:"daily_cost"`
	MonthlyProjection float64 `json:"monthly_projection"`
	YearToDate        float64 `json:"year_to_date"`
}

type Usage struct {
	Range    string         `json:"range"`
	Series   series.Series  `json:"series"`
	Summary  series.Summary `json:"summary"`
	Insights UsageInsights  `json:"insights"`
}

type QuickStats struct {
	TotalEnergy float64 `json:"total_energy"`
	Cost        float64 `json:"cost"`
	Carbon      float64 `json:"carbon"`
}

// DeviceState is a registry entry plus its simulated power draw in watts.
type DeviceState struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Status    bool     `json:"status"`
	Setpoint  *float64 `json:"setpoint,omitempty"`
	PowerDraw int      `json:"power_draw"`
}

type UsageReading struct {
	ID         int64     `json:"id"`
	DeviceID   int64     `json:"device_id"`
	RecordedAt time.Time `json:"recorded_at"`
	UsageValue float64   `json:"usage_value"`
}

type UsageTotal struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Total float64   `json:"total"`
	Count int64     `json:"count"`
}
