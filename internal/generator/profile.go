package generator

import (
	"fmt"
	"strconv"
	"time"
)

var (
	weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	monthLabels   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// profile describes the shape of one period's series: how many buckets it
// has, what each bucket is called and the base value noise is added to.
type profile struct {
	length int
	label  func(i int) string
	base   func(i int) float64
	spread float64
}

// DaysIn returns the number of days of the zero-based month in year.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

func dayOfMonthLabel(i int) string {
	return strconv.Itoa(i + 1)
}

func profileFor(p Period, now time.Time) (profile, error) {
	switch p.Kind {
	case KindDay:
		return profile{
			length: 24,
			label:  func(i int) string { return fmt.Sprintf("%d:00", i) },
			base: func(i int) float64 {
				if i >= 6 && i <= 21 {
					return 2.5
				}
				return 1.5
			},
			spread: 0.5,
		}, nil

	case KindWeek:
		return profile{
			length: 7,
			label:  func(i int) string { return weekdayLabels[i] },
			base: func(i int) float64 {
				if i >= 5 {
					return 3
				}
				return 2
			},
			spread: 1,
		}, nil

	case KindMonth:
		return profile{
			length: DaysIn(now.Year(), int(now.Month())-1),
			label:  dayOfMonthLabel,
			base:   func(int) float64 { return 2.5 },
			spread: 1.5,
		}, nil

	case KindYear:
		return profile{
			length: 12,
			label:  func(i int) string { return monthLabels[i] },
			base: func(i int) float64 {
				if i >= 11 || i <= 1 {
					return 3.5
				}
				return 2.5
			},
			spread: 1,
		}, nil

	case KindBill:
		if p.Month < 0 || p.Month > 11 {
			return profile{}, fmt.Errorf("%w: month index %d out of range 0-11", ErrInvalidPeriod, p.Month)
		}
		base := 2 + float64(p.Month)*0.2
		return profile{
			length: DaysIn(now.Year(), p.Month),
			label:  dayOfMonthLabel,
			base:   func(int) float64 { return base },
			spread: 3,
		}, nil

	case KindBillYear:
		return profile{
			length: 12,
			label:  func(i int) string { return monthLabels[i] },
			base:   func(int) float64 { return 60 },
			spread: 30,
		}, nil
	}

	return profile{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, p.Kind)
}

// Bounds reports the inclusive value range of bucket i of p.
func Bounds(p Period, now time.Time, i int) (lo, hi float64, err error) {
	prof, err := profileFor(p, now)
	if err != nil {
		return 0, 0, err
	}
	if i < 0 || i >= prof.length {
		return 0, 0, fmt.Errorf("bucket %d out of range for %s", i, p.Key())
	}
	lo = prof.base(i)
	return lo, lo + prof.spread, nil
}

// Length reports the number of buckets a series for p has at time now.
func Length(p Period, now time.Time) (int, error) {
	prof, err := profileFor(p, now)
	if err != nil {
		return 0, err
	}
	return prof.length, nil
}
