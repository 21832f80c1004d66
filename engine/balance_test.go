package engine

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestBalances_AnchorOverridesSameDayFlow is seed scenario S3: a manual
// anchor on 2024-06-15 wins over a same-day one-off of +200.
func TestBalances_AnchorOverridesSameDayFlow(t *testing.T) {
	account := Account{ID: acct("7")}
	w := Window{Start: d(2024, time.June, 15), End: d(2024, time.June, 16)}
	anchors := []ManualAccountState{{AccountID: acct("7"), Date: d(2024, time.June, 15), Amount: NewAmount(1000)}}
	occs := []Occurrence{{
		AccountID: acct("7"),
		Date:      d(2024, time.June, 15),
		Amount:    NewAmount(200),
		Origin:    OriginOneOff,
	}}

	series, err := Balances(context.Background(), []Account{account}, occs, anchors, w)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}

	got := series[acct("7")]
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[0].Balance.String() != "1000.0000" {
		t.Errorf("balance(6/15) = %s, want 1000.0000", got[0].Balance)
	}
	if got[1].Balance.String() != "1000.0000" {
		t.Errorf("balance(6/16) = %s, want 1000.0000 (carry-forward)", got[1].Balance)
	}
}

// TestBalances_TransferWithSource is seed scenario S5: a monthly +500
// transfer from account 1 to account 2 leaves the combined balance
// invariant across both accounts.
func TestBalances_TransferWithSource(t *testing.T) {
	a1, a2 := acct("1"), acct("2")
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.February, 29)}
	occs := []Occurrence{
		{AccountID: a2, Date: d(2024, time.January, 15), Amount: NewAmount(500), Origin: OriginScheduleTarget},
		{AccountID: a1, Date: d(2024, time.January, 15), Amount: NewAmount(-500), Origin: OriginScheduleSource},
		{AccountID: a2, Date: d(2024, time.February, 15), Amount: NewAmount(500), Origin: OriginScheduleTarget},
		{AccountID: a1, Date: d(2024, time.February, 15), Amount: NewAmount(-500), Origin: OriginScheduleSource},
	}

	series, err := Balances(context.Background(), []Account{{ID: a1}, {ID: a2}}, occs, nil, w)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}

	last := len(series[a1]) - 1
	combined := series[a1][last].Balance.Add(series[a2][last].Balance)
	if !combined.IsZero() {
		t.Errorf("combined balance = %s, want 0 (no anchors, two equal+opposite transfers)", combined)
	}
	if series[a2][last].Balance.String() != "1000.0000" {
		t.Errorf("account 2 end balance = %s, want 1000.0000", series[a2][last].Balance)
	}
}

// TestBalances_OverflowSurfacesRatherThanSaturates is the §7 NumericOverflow
// path: a coefficient that grows past the sane bound must surface as an
// error, not saturate or silently truncate.
func TestBalances_OverflowSurfacesRatherThanSaturates(t *testing.T) {
	account := Account{ID: acct("1")}
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.January, 2)}
	huge, err := ParseAmount("1" + strings.Repeat("0", 30))
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	occs := []Occurrence{{AccountID: acct("1"), Date: d(2024, time.January, 1), Amount: huge, Origin: OriginOneOff}}

	_, err = Balances(context.Background(), []Account{account}, occs, nil, w)
	if !IsNumericOverflow(err) {
		t.Fatalf("got err=%v, want a NumericOverflow error", err)
	}
}

func TestBalances_CarryForwardWithNoAnchorSeedsZero(t *testing.T) {
	account := Account{ID: acct("1")}
	w := Window{Start: d(2024, time.January, 1), End: d(2024, time.January, 5)}

	series, err := Balances(context.Background(), []Account{account}, nil, nil, w)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	for _, p := range series[acct("1")] {
		if !p.Balance.IsZero() {
			t.Errorf("balance(%s) = %s, want 0", p.Date, p.Balance)
		}
	}
}
