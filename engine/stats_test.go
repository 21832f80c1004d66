package engine

import (
	"testing"
	"time"
)

func pt(y int, m time.Month, day int, amount float64) BalancePoint {
	return BalancePoint{Date: d(y, m, day), Balance: NewAmount(amount)}
}

func TestComputeStats_MinMaxAndAverages(t *testing.T) {
	series := []BalancePoint{
		pt(2024, time.March, 1, 1000),
		pt(2024, time.March, 2, 1200), // +200 income
		pt(2024, time.March, 3, 900),  // -300 expense
		pt(2024, time.March, 4, 1100), // +200 income
		pt(2024, time.March, 5, 800),  // -300 expense
	}
	w := Window{Start: d(2024, time.March, 1), End: d(2024, time.March, 5)}
	today := d(2024, time.March, 1)

	stats := ComputeStats(series, w, today)

	if stats.Min.String() != "800.0000" {
		t.Errorf("Min = %s, want 800.0000", stats.Min)
	}
	if stats.Max.String() != "1200.0000" {
		t.Errorf("Max = %s, want 1200.0000", stats.Max)
	}
	if stats.AverageIncome.String() != "200.0000" {
		t.Errorf("AverageIncome = %s, want 200.0000", stats.AverageIncome)
	}
	if stats.AverageExpense.String() != "300.0000" {
		t.Errorf("AverageExpense = %s, want 300.0000", stats.AverageExpense)
	}
	if stats.EndOfPeriod.String() != "800.0000" {
		t.Errorf("EndOfPeriod = %s, want 800.0000", stats.EndOfPeriod)
	}
}

func TestComputeStats_UpcomingExpensesOnlyAfterToday(t *testing.T) {
	series := []BalancePoint{
		pt(2024, time.March, 1, 1000),
		pt(2024, time.March, 2, 700), // -300 expense, before/at today
		pt(2024, time.March, 3, 400), // -300 expense, after today
	}
	w := Window{Start: d(2024, time.March, 1), End: d(2024, time.March, 3)}
	today := d(2024, time.March, 2)

	stats := ComputeStats(series, w, today)
	if stats.UpcomingExpenses.String() != "300.0000" {
		t.Errorf("UpcomingExpenses = %s, want 300.0000 (only the 3/3 expense is after today)", stats.UpcomingExpenses)
	}
}

func TestComputeStats_EmptySubWindowReturnsZeroStats(t *testing.T) {
	series := []BalancePoint{pt(2024, time.March, 1, 1000)}
	w := Window{Start: d(2024, time.June, 1), End: d(2024, time.June, 30)}
	stats := ComputeStats(series, w, d(2024, time.June, 1))
	if !stats.Min.IsZero() || !stats.Max.IsZero() || !stats.EndOfPeriod.IsZero() {
		t.Errorf("expected zero Stats for empty sub-window, got %+v", stats)
	}
}
