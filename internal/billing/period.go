// Package billing implements calendar-month billing period arithmetic.
package billing

import "time"

// Period is the inclusive date range an invoice covers.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodFor returns the calendar-month period containing anchor: the
// first day of the anchor's month through the last. The end is derived
// as the first day of the next month minus one day, so month lengths and
// leap years fall out of the calendar instead of a lookup table.
func PeriodFor(anchor time.Time) Period {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return Period{Start: start, End: end}
}

// Next returns the period immediately following p, anchored at the day
// after p ends.
func Next(p Period) Period {
	return PeriodFor(p.End.AddDate(0, 0, 1))
}

// Days is the inclusive length of the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}
