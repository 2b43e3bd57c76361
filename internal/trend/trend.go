// Package trend classifies the change between two successive period totals.
package trend

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrZeroBaseline is returned when the previous total is zero and no
// percentage change can be expressed.
var ErrZeroBaseline = errors.New("previous total is zero")

type Direction string

const (
	Increase  Direction = "increase"
	Decrease  Direction = "decrease"
	Unchanged Direction = "unchanged"
)

// Result describes how current moved relative to previous. Magnitude is the
// absolute percentage change with one fractional digit.
type Result struct {
	Direction Direction `json:"direction"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Magnitude float64   `json:"magnitude"`
	Percent   string    `json:"percent"`
}

// Compare classifies current against previous on the exact values. The
// totals in the result are rounded to cents for display.
func Compare(current, previous float64) (Result, error) {
	if previous == 0 {
		return Result{}, fmt.Errorf("compare %.2f against %v: %w", current, previous, ErrZeroBaseline)
	}

	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previous)

	dir := Unchanged
	switch cur.Cmp(prev) {
	case -1:
		dir = Decrease
	case 1:
		dir = Increase
	}

	mag := cur.Div(prev).Sub(decimal.NewFromInt(1)).Abs().Mul(decimal.NewFromInt(100)).Round(1)
	magF, _ := mag.Float64()
	curF, _ := cur.Round(2).Float64()
	prevF, _ := prev.Round(2).Float64()

	return Result{
		Direction: dir,
		Current:   curF,
		Previous:  prevF,
		Magnitude: magF,
		Percent:   mag.StringFixed(1) + "%",
	}, nil
}

// Text renders the result the way the dashboard cards show it, for example
// "↓ 20.0% from last month".
func (r Result) Text(period string) string {
	switch r.Direction {
	case Decrease:
		return fmt.Sprintf("↓ %s from last %s", r.Percent, period)
	case Increase:
		return fmt.Sprintf("↑ %s from last %s", r.Percent, period)
	default:
		return fmt.Sprintf("Same as last %s", period)
	}
}

// Sentiment maps the direction onto the dashboard's styling classes: spending
// less is positive.
func (r Result) Sentiment() string {
	switch r.Direction {
	case Decrease:
		return "positive"
	case Increase:
		return "negative"
	default:
		return "neutral"
	}
}
