package incentive

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH PERIOD - The grain for snapshots and closes
// =============================================================================

// MonthPeriod identifies one calendar month. Snapshots and target history
// rows are keyed by it.
type MonthPeriod struct {
	Year  int
	Month time.Month
}

// MonthOf returns the period containing t.
func MonthOf(t time.Time) MonthPeriod {
	return MonthPeriod{Year: t.Year(), Month: t.Month()}
}

// PreviousMonth returns the calendar month before the one containing t.
// This is the default period for batch closes.
func PreviousMonth(t time.Time) MonthPeriod {
	if t.Month() == time.January {
		return MonthPeriod{Year: t.Year() - 1, Month: time.December}
	}
	return MonthPeriod{Year: t.Year(), Month: t.Month() - 1}
}

// NewMonthPeriod validates a raw year/month pair.
func NewMonthPeriod(year, month int) (MonthPeriod, error) {
	if year < 1 || month < 1 || month > 12 {
		return MonthPeriod{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	return MonthPeriod{Year: year, Month: time.Month(month)}, nil
}

// Start returns the first day of the month at UTC midnight.
func (p MonthPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month at UTC midnight.
func (p MonthPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether the day of t falls inside the period.
func (p MonthPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(p.Start()) && !d.After(p.End())
}

func (p MonthPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// DateOnly truncates t to UTC day granularity. Sale dates and daily target
// windows are always compared at this granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayPeriod returns the [from, to] day window for a daily target as of t.
func DayPeriod(t time.Time) (time.Time, time.Time) {
	d := DateOnly(t)
	return d, d
}
