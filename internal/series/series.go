// Package series holds the energy series shared by the generator, the
// dashboard service and the transports, and reduces a series to a summary.
package series

import (
	"github.com/shopspring/decimal"
)

// Point is one labelled value of a series: an hour, a weekday, a day of the
// month or a month name.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is the ordered output of one generation for one period key. A Series
// is never modified after it is generated.
type Series struct {
	Period string  `json:"period"`
	Points []Point `json:"points"`
}

func (s Series) Len() int {
	return len(s.Points)
}

// Values returns a copy of the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Labels returns a copy of the point labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Clone returns a deep copy so callers can hand the series out without
// sharing the backing array.
func (s Series) Clone() Series {
	points := make([]Point, len(s.Points))
	copy(points, s.Points)
	return Series{Period: s.Period, Points: points}
}

// Round rounds v half away from zero to places fractional digits.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
