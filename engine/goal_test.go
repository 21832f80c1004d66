package engine

import (
	"context"
	"testing"
	"time"
)

// TestGoalReachedDate_FirstCrossing checks the goal scan behind seed
// scenario S6 on a hand-built monthly series (not S6's own figures): the
// balance starts below the target and crosses it partway through; the
// scan must return the first crossing, not a later one.
func TestGoalReachedDate_FirstCrossing(t *testing.T) {
	series := []BalancePoint{
		pt(2024, time.January, 1, 500),
		pt(2024, time.February, 1, 800),
		pt(2024, time.March, 1, 1000),  // first to reach target
		pt(2024, time.April, 1, 1300),
	}
	target := NewAmount(1000)

	got, err := GoalReachedDate(context.Background(), series, target)
	if err != nil {
		t.Fatalf("GoalReachedDate: %v", err)
	}
	if got == nil {
		t.Fatal("got nil, want a date")
	}
	if !got.Equal(d(2024, time.March, 1)) {
		t.Errorf("got %s, want 2024-03-01", got)
	}
}

func TestGoalReachedDate_NeverReachedReturnsNil(t *testing.T) {
	series := []BalancePoint{
		pt(2024, time.January, 1, 100),
		pt(2024, time.February, 1, 200),
	}
	got, err := GoalReachedDate(context.Background(), series, NewAmount(10000))
	if err != nil {
		t.Fatalf("GoalReachedDate: %v", err)
	}
	if got != nil {
		t.Errorf("got %s, want nil", got)
	}
}

func TestGoalReachedDate_ExactMatchCounts(t *testing.T) {
	series := []BalancePoint{pt(2024, time.January, 1, 1000)}
	got, err := GoalReachedDate(context.Background(), series, NewAmount(1000))
	if err != nil {
		t.Fatalf("GoalReachedDate: %v", err)
	}
	if got == nil || !got.Equal(d(2024, time.January, 1)) {
		t.Errorf("got %v, want 2024-01-01", got)
	}
}

func TestGoalReachedDate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := make([]BalancePoint, 1000)
	for i := range series {
		series[i] = pt(2024, time.January, 1, 0)
	}
	_, err := GoalReachedDate(ctx, series, NewAmount(1))
	if !IsCancelled(err) {
		t.Fatalf("err = %v, want Cancelled", err)
	}
}
