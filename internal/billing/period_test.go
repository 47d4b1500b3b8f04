package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantDays  int
	}{
		{
			name:      "mid month",
			anchor:    date(2024, time.March, 15),
			wantStart: date(2024, time.March, 1),
			wantEnd:   date(2024, time.March, 31),
			wantDays:  31,
		},
		{
			name:      "leap february",
			anchor:    date(2024, time.February, 1),
			wantStart: date(2024, time.February, 1),
			wantEnd:   date(2024, time.February, 29),
			wantDays:  29,
		},
		{
			name:      "non leap february",
			anchor:    date(2023, time.February, 28),
			wantStart: date(2023, time.February, 1),
			wantEnd:   date(2023, time.February, 28),
			wantDays:  28,
		},
		{
			name:      "december wraps year",
			anchor:    date(2023, time.December, 31),
			wantStart: date(2023, time.December, 1),
			wantEnd:   date(2023, time.December, 31),
			wantDays:  31,
		},
		{
			name:      "thirty day month",
			anchor:    date(2024, time.April, 30),
			wantStart: date(2024, time.April, 1),
			wantEnd:   date(2024, time.April, 30),
			wantDays:  30,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := PeriodFor(tc.anchor)
			assert.Equal(t, tc.wantStart, p.Start)
			assert.Equal(t, tc.wantEnd, p.End)
			assert.Equal(t, tc.wantDays, p.Days())
		})
	}
}

func TestNextIsContiguous(t *testing.T) {
	// Walk five years of successive periods and check contiguity and
	// non-overlap across every month boundary, including year rollovers.
	p := PeriodFor(date(2022, time.January, 10))
	for range 60 {
		next := Next(p)
		assert.Equal(t, p.End.AddDate(0, 0, 1), next.Start,
			"period ending %s must be followed by one starting the next day", p.End)
		assert.True(t, next.Start.After(p.End), "periods must not overlap")
		assert.Equal(t, 1, next.Start.Day())
		p = next
	}
	assert.Equal(t, date(2027, time.January, 1), p.Start)
}

func TestNextDecemberToJanuary(t *testing.T) {
	p := PeriodFor(date(2023, time.December, 5))
	next := Next(p)
	assert.Equal(t, date(2024, time.January, 1), next.Start)
	assert.Equal(t, date(2024, time.January, 31), next.End)
}

func TestNextJanuaryToLeapFebruary(t *testing.T) {
	p := Period{Start: date(2024, time.January, 1), End: date(2024, time.January, 31)}
	next := Next(p)
	assert.Equal(t, date(2024, time.February, 1), next.Start)
	assert.Equal(t, date(2024, time.February, 29), next.End)
}
