package engine

import "time"

// Date is a calendar date in the engine's single implicit timezone (UTC).
// It carries no hour/minute granularity: a day is the smallest temporal
// unit, and paid_on is logically Option<date> rather than a timestamp.
type Date struct {
	t time.Time
}

// NewDate builds a Date from a calendar year/month/day. If the day does
// not exist in that month (e.g. February 30), the returned Date's Day()
// will not equal the requested day - callers enumerating recurrences
// must check DateExists before using a constructed Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateExists reports whether (year, month, day) is a real calendar date,
// i.e. whether constructing it and reading the day back round-trips.
// This is the skip-not-clamp check required by the Monthly/Quarterly/
// HalfYearly/Yearly recurrence rules.
func DateExists(year int, month time.Month, day int) bool {
	d := NewDate(year, month, day)
	return d.Month() == month && d.Day() == day && d.Year() == year
}

// DateFromTime truncates a time.Time to its calendar date in UTC.
func DateFromTime(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateFromTime(time.Now()) }

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) AddDays(n int) Date   { return DateFromTime(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateFromTime(d.t.AddDate(0, n, 0)) }
func (d Date) AddYears(n int) Date  { return DateFromTime(d.t.AddDate(n, 0, 0)) }

func (d Date) Before(o Date) bool         { return d.t.Before(o.t) }
func (d Date) After(o Date) bool          { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool          { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool  { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool   { return !d.Before(o) }

// Time returns the underlying UTC midnight time.Time, for callers that
// need to attach a wall-clock paid_on timestamp (§4.2's paid_on=d@00:00).
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }
