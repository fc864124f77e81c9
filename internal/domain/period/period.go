package period

import (
	"errors"
	"fmt"
	"time"
)

const layout = "2006-01"

var ErrInvalidPeriod = errors.New("period must be in YYYY-MM format")

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

func Parse(value string) (Period, error) {
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: parsed.Year(), Month: parsed.Month()}, nil
}

func Of(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Range returns the closed day range covering the whole month.
func (p Period) Range() DateRange {
	return DateRange{Start: p.Start(), End: p.End()}
}

func (p Period) Previous() Period {
	return Of(p.Start().AddDate(0, -1, 0))
}

func (p Period) Next() Period {
	return Of(p.Start().AddDate(0, 1, 0))
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is a closed range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewRange(start, end time.Time) (DateRange, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return DateRange{}, errors.New("end date before start date")
	}
	return DateRange{Start: start, End: end}, nil
}

func (r DateRange) Contains(t time.Time) bool {
	day := Day(t)
	return !day.Before(Day(r.Start)) && !day.After(Day(r.End))
}

// Days lists every day of the range in order.
func (r DateRange) Days() []time.Time {
	start, end := Day(r.Start), Day(r.End)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}
