package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod indicates a period whose end precedes its start
var ErrInvalidPeriod = errors.New("period end must not precede period start")

// Period is a closed calendar-day range covered by one statement and its
// reconciliation runs. Times are truncated to UTC days when compared.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod creates a period, normalizing both bounds to UTC midnight
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: DayOf(start), End: DayOf(end)}
	if p.End.Before(p.Start) {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// Contains reports whether t falls inside the period, day-granular
func (p Period) Contains(t time.Time) bool {
	d := DayOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Key renders the period as a stable string usable in log fields and unique keys
func (p Period) Key() string {
	return fmt.Sprintf("%s_%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// DayOf truncates a timestamp to its UTC calendar day
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
