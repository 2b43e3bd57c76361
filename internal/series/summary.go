package series

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrEmptySeries is returned when a summary is requested for a series with no
// points.
var ErrEmptySeries = errors.New("series is empty")

// Summary is derived from exactly one Series. Positions are zero-based and
// always refer to the first point attaining the extreme.
type Summary struct {
	Period       string  `json:"period"`
	Total        float64 `json:"total"`
	Average      float64 `json:"average"`
	PeakValue    float64 `json:"peak_value"`
	PeakPosition int     `json:"peak_position"`
	PeakLabel    string  `json:"peak_label"`
	MinValue     float64 `json:"min_value"`
	MinPosition  int     `json:"min_position"`
	Length       int     `json:"length"`
}

// Summarize reduces s to its total, average, peak and minimum. The total is an
// exact decimal sum rounded to cents and the average is total/length rounded
// the same way.
func Summarize(s Series) (Summary, error) {
	if len(s.Points) == 0 {
		return Summary{}, ErrEmptySeries
	}

	total := decimal.Zero
	peak, low := 0, 0
	for i, p := range s.Points {
		total = total.Add(decimal.NewFromFloat(p.Value))
		if p.Value > s.Points[peak].Value {
			peak = i
		}
		if p.Value < s.Points[low].Value {
			low = i
		}
	}

	n := decimal.NewFromInt(int64(len(s.Points)))
	totalF, _ := total.Round(2).Float64()
	avgF, _ := total.DivRound(n, 2).Float64()

	return Summary{
		Period:       s.Period,
		Total:        totalF,
		Average:      avgF,
		PeakValue:    s.Points[peak].Value,
		PeakPosition: peak,
		PeakLabel:    s.Points[peak].Label,
		MinValue:     s.Points[low].Value,
		MinPosition:  low,
		Length:       len(s.Points),
	}, nil
}
