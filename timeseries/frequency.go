package timeseries

import (
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/stockcast/tserr"
)

// Frequency is the sampling interval of a series.
//
// Exactly one of Step, Days or Months is non-zero. Step is a fixed duration;
// Days and Months are calendar steps that keep the wall-clock time, so daily
// data across a DST change and monthly data with 28..31 day months are
// regular.
type Frequency struct {
	Step     time.Duration
	Days     int
	Months   int
	MonthEnd bool // Months steps land on the last day of the month
}

// Next returns the k-th timestamp after t.
func (f Frequency) Next(t time.Time, k int) time.Time {
	switch {
	case f.Months > 0:
		y, m, d := t.Date()
		hh, mm, ss := t.Clock()
		month := m + time.Month(k*f.Months)
		if f.MonthEnd {
			// day 0 of the following month is the last day of month
			return time.Date(y, month+1, 0, hh, mm, ss, t.Nanosecond(), t.Location())
		}
		return time.Date(y, month, d, hh, mm, ss, t.Nanosecond(), t.Location())
	case f.Days > 0:
		return t.AddDate(0, 0, k*f.Days)
	default:
		return t.Add(time.Duration(k) * f.Step)
	}
}

func (f Frequency) String() string {
	switch {
	case f.Months > 0 && f.MonthEnd:
		return fmt.Sprintf("%dM (month end)", f.Months)
	case f.Months > 0:
		return fmt.Sprintf("%dM", f.Months)
	case f.Days > 0:
		return fmt.Sprintf("%dD", f.Days)
	default:
		return f.Step.String()
	}
}

// inferFrequency tries a fixed step first, then calendar days, then calendar months.
func inferFrequency(ts []time.Time, tol float64) (Frequency, error) {
	if step, ok := fixedStep(ts, tol); ok {
		return Frequency{Step: step}, nil
	}
	if days, ok := calendarDays(ts); ok {
		return Frequency{Days: days}, nil
	}
	if months, monthEnd, ok := calendarMonths(ts); ok {
		return Frequency{Months: months, MonthEnd: monthEnd}, nil
	}

	minGap, maxGap := gapRange(ts)
	return Frequency{}, tserr.New(tserr.ErrIrregularFrequency, "timeseries.New",
		"gaps range from %s to %s (tolerance %.2f%%)", minGap, maxGap, tol*100)
}

func gapRange(ts []time.Time) (minGap, maxGap time.Duration) {
	minGap = time.Duration(math.MaxInt64)
	for i := 1; i < len(ts); i++ {
		gap := ts[i].Sub(ts[i-1])
		if gap < minGap {
			minGap = gap
		}
		if gap > maxGap {
			maxGap = gap
		}
	}
	return minGap, maxGap
}

func fixedStep(ts []time.Time, tol float64) (time.Duration, bool) {
	minGap, _ := gapRange(ts)
	limit := tol * float64(minGap)
	for i := 1; i < len(ts); i++ {
		if float64(ts[i].Sub(ts[i-1])-minGap) > limit {
			return 0, false
		}
	}
	return minGap, true
}

func sameClock(a, b time.Time) bool {
	ah, am, as := a.Clock()
	bh, bm, bs := b.Clock()
	return ah == bh && am == bm && as == bs && a.Nanosecond() == b.Nanosecond()
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func calendarDays(ts []time.Time) (int, bool) {
	step := civilDay(ts[1]) - civilDay(ts[0])
	if step <= 0 {
		return 0, false
	}
	for i := 1; i < len(ts); i++ {
		if !sameClock(ts[i], ts[0]) || civilDay(ts[i])-civilDay(ts[i-1]) != step {
			return 0, false
		}
	}
	return step, true
}

func monthIndex(t time.Time) int {
	y, m, _ := t.Date()
	return y*12 + int(m) - 1
}

func isMonthEnd(t time.Time) bool {
	y, m, d := t.Date()
	return d == time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func calendarMonths(ts []time.Time) (months int, monthEnd bool, ok bool) {
	months = monthIndex(ts[1]) - monthIndex(ts[0])
	if months <= 0 {
		return 0, false, false
	}

	monthEnd, sameDay := true, true
	for i := range ts {
		if !sameClock(ts[i], ts[0]) {
			return 0, false, false
		}
		if i > 0 && monthIndex(ts[i])-monthIndex(ts[i-1]) != months {
			return 0, false, false
		}
		monthEnd = monthEnd && isMonthEnd(ts[i])
		sameDay = sameDay && ts[i].Day() == ts[0].Day()
	}
	if !monthEnd && !sameDay {
		return 0, false, false
	}
	return months, monthEnd, true
}
