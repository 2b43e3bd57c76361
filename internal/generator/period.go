package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPeriod is returned for period keys or month indexes the generator
// does not know.
var ErrInvalidPeriod = errors.New("invalid period")

type Kind string

const (
	KindDay      Kind = "day"
	KindWeek     Kind = "week"
	KindMonth    Kind = "month"
	KindYear     Kind = "year"
	KindBill     Kind = "bill"
	KindBillYear Kind = "bill-year"
)

const billPrefix = "bill:"

// Period identifies one generated series. Month is only meaningful for
// KindBill and holds a zero-based month index.
type Period struct {
	Kind  Kind
	Month int
}

var (
	Day      = Period{Kind: KindDay}
	Week     = Period{Kind: KindWeek}
	Month    = Period{Kind: KindMonth}
	Year     = Period{Kind: KindYear}
	BillYear = Period{Kind: KindBillYear}
)

// Ranges lists the usage views selectable on the analytics panel.
var Ranges = []Period{Day, Week, Month, Year}

// BillMonth returns the monthly bill period for a zero-based month index.
func BillMonth(month int) (Period, error) {
	if month < 0 || month > 11 {
		return Period{}, fmt.Errorf("%w: month index %d out of range 0-11", ErrInvalidPeriod, month)
	}
	return Period{Kind: KindBill, Month: month}, nil
}

// ParsePeriod parses the keys produced by Period.Key.
func ParsePeriod(key string) (Period, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	case "bill:year":
		return BillYear, nil
	}

	if rest, ok := strings.CutPrefix(k, billPrefix); ok {
		m, err := strconv.Atoi(rest)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
		}
		return BillMonth(m)
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
}

// ParseRange accepts only the usage range keywords day, week, month and year.
func ParseRange(key string) (Period, error) {
	p, err := ParsePeriod(key)
	if err != nil {
		return Period{}, err
	}
	if !p.IsRange() {
		return Period{}, fmt.Errorf("%w: %q is not a usage range", ErrInvalidPeriod, key)
	}
	return p, nil
}

func (p Period) IsRange() bool {
	switch p.Kind {
	case KindDay, KindWeek, KindMonth, KindYear:
		return true
	}
	return false
}

// Key is the stable string form of p, accepted by ParsePeriod.
func (p Period) Key() string {
	switch p.Kind {
	case KindBill:
		return billPrefix + strconv.Itoa(p.Month)
	case KindBillYear:
		return "bill:year"
	default:
		return string(p.Kind)
	}
}

func (p Period) String() string {
	return p.Key()
}

// Previous returns the bill period one month earlier, wrapping January to
// December. Other kinds have no predecessor.
func (p Period) Previous() (Period, bool) {
	if p.Kind != KindBill {
		return Period{}, false
	}
	return Period{Kind: KindBill, Month: (p.Month + 11) % 12}, true
}
