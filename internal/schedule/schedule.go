// Package schedule holds the calendar arithmetic used by recurring templates.
// Every caller that needs the next due date goes through Next so the
// month-end clamping rule lives in one place.
package schedule

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/models"
)

// DefaultHorizonMonths bounds generation for templates without an end date
const DefaultHorizonMonths = 12

// MaxSteps bounds the due dates a single walk produces. Longer schedules are
// generated up to the bound; later regenerations and sweeps continue them.
const MaxSteps = 5000

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves d forward by n calendar months. The target month is
// computed on month-1+n and the day is clamped to the last day of the
// target month, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(d civil.Date, n int) civil.Date {
	idx := int(d.Month) - 1 + n
	year := d.Year + floorDiv(idx, 12)
	month := time.Month(idx-floorDiv(idx, 12)*12 + 1)
	day := d.Day
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Next returns the due date following d for the given frequency
func Next(d civil.Date, f models.Frequency) (civil.Date, error) {
	switch f {
	case models.FrequencyDaily:
		return d.AddDays(1), nil
	case models.FrequencyWeekly:
		return d.AddDays(7), nil
	case models.FrequencyMonthly:
		return AddMonths(d, 1), nil
	case models.FrequencyQuarterly:
		return AddMonths(d, 3), nil
	case models.FrequencyYearly:
		return AddMonths(d, 12), nil
	}
	return d, fmt.Errorf("unknown frequency %q", f)
}

// Walk returns the due dates from start (inclusive) to until (inclusive), at
// most MaxSteps of them. truncated reports that the bound stopped the walk
// before until. An unknown frequency is an error even when the range is empty.
func Walk(start, until civil.Date, f models.Frequency) (dates []civil.Date, truncated bool, err error) {
	if _, err := Next(start, f); err != nil {
		return nil, false, err
	}
	current := start
	for !current.After(until) {
		if len(dates) == MaxSteps {
			return dates, true, nil
		}
		dates = append(dates, current)
		if current, err = Next(current, f); err != nil {
			return nil, false, err
		}
	}
	return dates, false, nil
}

// Take returns the first n due dates starting at start, stopping early
// after end when it is set
func Take(start civil.Date, end *civil.Date, f models.Frequency, n int) ([]civil.Date, error) {
	dates := make([]civil.Date, 0, n)
	current := start
	for len(dates) < n {
		if end != nil && current.After(*end) {
			break
		}
		dates = append(dates, current)
		next, err := Next(current, f)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return dates, nil
}

// Horizon returns the last date a walk may reach: the end date when set,
// otherwise months after from. Callers pass the later of the first due date
// and today as from, so the window always reaches into the future.
func Horizon(from civil.Date, end *civil.Date, months int) civil.Date {
	if end != nil {
		return *end
	}
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	return AddMonths(from, months)
}

// Max returns the later of two dates
func Max(a, b civil.Date) civil.Date {
	if a.After(b) {
		return a
	}
	return b
}

// ToTime converts a calendar date to UTC midnight, the form stored in date columns
func ToTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// FromTime converts a stored date column back to a calendar date
func FromTime(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// Today returns the current UTC calendar date
func Today() civil.Date {
	return civil.DateOf(time.Now().UTC())
}
