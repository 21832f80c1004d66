package engine

import (
	"context"
	"testing"
	"time"
)

func d(y int, m time.Month, day int) Date { return NewDate(y, m, day) }

// TestRecurrence_MonthlyRentSkipsNonExistentDays is seed scenario S1:
// start 2024-01-31, Monthly, window 2024-01-01..2024-04-30. Only
// January and March have a 31st; February and April don't, so both are
// skipped rather than clamped to month-end.
func TestRecurrence_MonthlyRentSkipsNonExistentDays(t *testing.T) {
	r := Recurrence{StartDate: d(2024, time.January, 31), Period: Monthly}
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.April, 30)}

	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	want := []Date{d(2024, time.January, 31), d(2024, time.March, 31)}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}

	if !r.HasAny(w) {
		t.Error("HasAny = false, want true")
	}
}

// TestRecurrence_WorkdaySchedule is seed scenario S2.
func TestRecurrence_WorkdaySchedule(t *testing.T) {
	r := Recurrence{StartDate: d(2024, time.March, 4), Period: WorkDay}
	w := Window{Start: d(2024, time.March, 4), End: d(2024, time.March, 10)}

	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d occurrences, want 5: %v", len(got), got)
	}
	for i, day := range []int{4, 5, 6, 7, 8} {
		if got[i].Day() != day {
			t.Errorf("occurrence %d = day %d, want %d", i, got[i].Day(), day)
		}
	}
}

func TestRecurrence_Weekly(t *testing.T) {
	r := Recurrence{StartDate: d(2024, time.March, 4), Period: Weekly} // Monday
	w := Window{Start: d(2024, time.March, 1), End: d(2024, time.March, 31)}
	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	for _, occ := range got {
		if occ.Weekday() != time.Monday {
			t.Errorf("occurrence %s is not a Monday", occ)
		}
	}
	if len(got) != 4 {
		t.Fatalf("got %d Mondays, want 4", len(got))
	}
}

func TestRecurrence_QuarterlyAlignment(t *testing.T) {
	r := Recurrence{StartDate: d(2024, time.January, 15), Period: Quarterly}
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.December, 31)}
	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []time.Month{time.January, time.April, time.July, time.October}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, m := range want {
		if got[i].Month() != m {
			t.Errorf("occurrence %d month = %s, want %s", i, got[i].Month(), m)
		}
	}
}

func TestRecurrence_YearlySkipsLeapDayInNonLeapYears(t *testing.T) {
	r := Recurrence{StartDate: d(2020, time.February, 29), Period: Yearly}
	w := Window{Start: d(2020, time.January, 1), End: d(2024, time.December, 31)}
	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []int{2020, 2024}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(got), len(want), got)
	}
	for i, y := range want {
		if got[i].Year() != y {
			t.Errorf("occurrence %d year = %d, want %d", i, got[i].Year(), y)
		}
	}
}

func TestRecurrence_EndDateBeforeStartReturnsEmpty(t *testing.T) {
	end := d(2024, time.January, 1)
	r := Recurrence{StartDate: d(2024, time.June, 1), EndDate: &end, Period: Daily}
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.December, 31)}
	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d occurrences, want 0", len(got))
	}
	if r.HasAny(w) {
		t.Error("HasAny = true, want false")
	}
}

func TestRecurrence_Daily(t *testing.T) {
	r := Recurrence{StartDate: d(2024, time.January, 1), Period: Daily}
	w := Window{Start: d(2024, time.June, 1), End: d(2024, time.June, 5)}
	got, err := r.Enumerate(context.Background(), w)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d days, want 5", len(got))
	}
}
