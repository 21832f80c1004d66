package engine

import (
	"context"
	"time"
)

// Recurrence enumerates the occurrence dates of a schedule-shaped input.
// RecurringSchedule and RecurringIncome both reduce to this shape before
// enumeration, covering the seven calendar recurrence rules in §4.1.
type Recurrence struct {
	StartDate Date
	EndDate   *Date // inclusive when present
	Period    Period
}

var farFuture = NewDate(9999, time.December, 31)

func (r Recurrence) effectiveWindow(w Window) (Window, bool) {
	bound := Window{Start: r.StartDate, End: farFuture}
	if r.EndDate != nil {
		bound.End = *r.EndDate
	}
	return w.Intersect(bound)
}

// Enumerate produces the ordered, deduplicated list of occurrence dates
// in w under the authoritative per-period rules (§4.1). Dates are
// strictly ascending. An empty result is the correct answer, not an
// error, whenever the effective window is empty (including the
// end_date < start_date case).
func (r Recurrence) Enumerate(ctx context.Context, w Window) ([]Date, error) {
	eff, ok := r.effectiveWindow(w)
	if !ok {
		return nil, nil
	}

	switch r.Period {
	case Daily:
		return r.enumerateDaily(eff), nil
	case Weekly:
		return r.enumerateWeekly(eff), nil
	case WorkDay:
		return r.enumerateWorkDay(eff), nil
	case Monthly:
		return r.enumerateMonthAligned(ctx, eff, 1)
	case Quarterly:
		return r.enumerateMonthAligned(ctx, eff, 3)
	case HalfYearly:
		return r.enumerateMonthAligned(ctx, eff, 6)
	case Yearly:
		return r.enumerateYearly(ctx, eff)
	default:
		return nil, NewInvariantError("RecurringSchedule", "", "unknown period "+string(r.Period))
	}
}

// HasAny is the fast-path predicate required to be consistent with
// Enumerate (true iff Enumerate would be non-empty) without requiring
// full enumeration.
func (r Recurrence) HasAny(w Window) bool {
	eff, ok := r.effectiveWindow(w)
	if !ok {
		return false
	}
	switch r.Period {
	case Daily:
		return !eff.Empty()
	case Weekly:
		return r.hasAnyWeekly(eff)
	case WorkDay:
		return r.hasAnyWorkDay(eff)
	case Monthly:
		return r.hasAnyMonthAligned(eff, 1)
	case Quarterly:
		return r.hasAnyMonthAligned(eff, 3)
	case HalfYearly:
		return r.hasAnyMonthAligned(eff, 6)
	case Yearly:
		return r.hasAnyYearly(eff)
	default:
		return false
	}
}

func (r Recurrence) enumerateDaily(eff Window) []Date {
	var dates []Date
	for d := eff.Start; d.BeforeOrEqual(eff.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

func (r Recurrence) enumerateWeekly(eff Window) []Date {
	wd := r.StartDate.Weekday()
	delta := (int(wd) - int(eff.Start.Weekday()) + 7) % 7
	var dates []Date
	for d := eff.Start.AddDays(delta); d.BeforeOrEqual(eff.End); d = d.AddDays(7) {
		dates = append(dates, d)
	}
	return dates
}

func (r Recurrence) enumerateWorkDay(eff Window) []Date {
	var dates []Date
	for d := eff.Start; d.BeforeOrEqual(eff.End); d = d.AddDays(1) {
		if d.IsWorkday() {
			dates = append(dates, d)
		}
	}
	return dates
}

// monthAlignDiff is the Monthly/Quarterly/HalfYearly alignment test:
// (m - anchorMonth) mod step == 0, using a non-negative modulo so
// January-vs-December anchors still align correctly.
func monthAlignDiff(m, anchorMonth time.Month, step int) int {
	return ((int(m)-int(anchorMonth))%step + step) % step
}

func (r Recurrence) enumerateMonthAligned(ctx context.Context, eff Window, step int) ([]Date, error) {
	anchorMonth := r.StartDate.Month()
	anchorDay := r.StartDate.Day()
	y, m := eff.Start.Year(), eff.Start.Month()
	lastY, lastM := eff.End.Year(), eff.End.Month()

	var dates []Date
	for {
		if y != eff.Start.Year() || m != eff.Start.Month() {
			// one cancellation check per advancing month covers the
			// "once per year of expansion" requirement with margin.
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
		}
		if monthAlignDiff(m, anchorMonth, step) == 0 && DateExists(y, m, anchorDay) {
			cand := NewDate(y, m, anchorDay)
			if eff.Contains(cand) {
				dates = append(dates, cand)
			}
		}
		if y == lastY && m == lastM {
			break
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return dates, nil
}

func (r Recurrence) enumerateYearly(ctx context.Context, eff Window) ([]Date, error) {
	anchorMonth := r.StartDate.Month()
	anchorDay := r.StartDate.Day()
	var dates []Date
	for y := eff.Start.Year(); y <= eff.End.Year(); y++ {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		if DateExists(y, anchorMonth, anchorDay) {
			cand := NewDate(y, anchorMonth, anchorDay)
			if eff.Contains(cand) {
				dates = append(dates, cand)
			}
		}
	}
	return dates, nil
}

func (r Recurrence) hasAnyWeekly(eff Window) bool {
	wd := r.StartDate.Weekday()
	delta := (int(wd) - int(eff.Start.Weekday()) + 7) % 7
	return eff.Start.AddDays(delta).BeforeOrEqual(eff.End)
}

func (r Recurrence) hasAnyWorkDay(eff Window) bool {
	d := eff.Start
	for i := 0; i < 7 && d.BeforeOrEqual(eff.End); i++ {
		if d.IsWorkday() {
			return true
		}
		d = d.AddDays(1)
	}
	return false
}

func (r Recurrence) hasAnyMonthAligned(eff Window, step int) bool {
	anchorMonth := r.StartDate.Month()
	anchorDay := r.StartDate.Day()
	y, m := eff.Start.Year(), eff.Start.Month()
	lastY, lastM := eff.End.Year(), eff.End.Month()
	for {
		if monthAlignDiff(m, anchorMonth, step) == 0 && DateExists(y, m, anchorDay) {
			cand := NewDate(y, m, anchorDay)
			if eff.Contains(cand) {
				return true
			}
		}
		if y == lastY && m == lastM {
			break
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return false
}

func (r Recurrence) hasAnyYearly(eff Window) bool {
	anchorMonth := r.StartDate.Month()
	anchorDay := r.StartDate.Day()
	for y := eff.Start.Year(); y <= eff.End.Year(); y++ {
		if DateExists(y, anchorMonth, anchorDay) {
			cand := NewDate(y, anchorMonth, anchorDay)
			if eff.Contains(cand) {
				return true
			}
		}
	}
	return false
}
