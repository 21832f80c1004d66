package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

func date(y int, m time.Month, d int) engine.Date { return engine.NewDate(y, m, d) }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AccountsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	target := engine.NewAmount(5000)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, name, currency_code, owner_id, include_in_statistics, kind, target_amount, ledger_name) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		"savings", "Savings", "USD", "alex", 1, "Goal", target.Value.String(), nil)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}

	got, err := s.LoadAccounts(ctx, store.Scope{})
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d accounts, want 1", len(got))
	}
	if got[0].Kind != engine.AccountGoal || got[0].TargetAmount == nil || got[0].TargetAmount.String() != "5000.0000" {
		t.Fatalf("got %+v", got[0])
	}
}

func TestStore_SaveAndLoadSchedules(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sim := engine.ScenarioID("draft")
	if err := s.SaveAccounts(ctx, []engine.Account{{ID: "checking", Kind: engine.AccountReal}}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := s.SaveScenarios(ctx, []engine.Scenario{{ID: sim, Name: "Draft"}}); err != nil {
		t.Fatalf("seed scenario: %v", err)
	}
	schedule := engine.RecurringSchedule{
		ID:              "rent",
		Name:            "Rent",
		Amount:          engine.NewAmount(-1200),
		StartDate:       date(2024, time.January, 1),
		Period:          engine.Monthly,
		TargetAccountID: "checking",
		IsSimulated:     true,
		ScenarioID:      &sim,
		Tags:            []engine.TagID{"housing"},
	}
	if err := s.SaveSchedules(ctx, []engine.RecurringSchedule{schedule}); err != nil {
		t.Fatalf("SaveSchedules: %v", err)
	}

	got, err := s.LoadSchedules(ctx, store.Scope{}, engine.ScenarioViewFor(sim))
	if err != nil {
		t.Fatalf("LoadSchedules: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d schedules, want 1", len(got))
	}
	if got[0].Amount.String() != "-1200.0000" || len(got[0].Tags) != 1 || got[0].Tags[0] != "housing" {
		t.Fatalf("got %+v", got[0])
	}

	real, err := s.LoadSchedules(ctx, store.Scope{}, engine.RealOnlyView())
	if err != nil {
		t.Fatalf("LoadSchedules real-only: %v", err)
	}
	if len(real) != 0 {
		t.Fatalf("expected simulated schedule to be excluded from the real-only view, got %d", len(real))
	}
}

func TestStore_ReconciliationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	imp := engine.ImportedTransaction{
		ID:        "imp1",
		AccountID: "checking",
		Date:      date(2024, time.March, 1),
		Amount:    engine.NewAmount(-42),
	}
	if err := s.SaveAccounts(ctx, []engine.Account{{ID: "checking", Kind: engine.AccountReal}}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO imported_transactions (id, account_id, date, description, amount, import_hash) VALUES (?, ?, ?, ?, ?, ?)",
		imp.ID, imp.AccountID, formatDate(imp.Date), "", imp.Amount.Value.String(), "hash1")
	if err != nil {
		t.Fatalf("seed imported transaction: %v", err)
	}

	link := &engine.ReconciliationLink{Kind: engine.ReconciledOneOff, ID: "oo1"}
	if err := s.PersistReconciliation(ctx, "imp1", link); err != nil {
		t.Fatalf("PersistReconciliation: %v", err)
	}

	loaded, err := s.LoadImportedTransactions(ctx, []engine.AccountID{"checking"}, engine.Window{
		Start: date(2024, time.January, 1), End: date(2024, time.December, 31),
	})
	if err != nil {
		t.Fatalf("LoadImportedTransactions: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Reconciled == nil || loaded[0].Reconciled.ID != "oo1" {
		t.Fatalf("got %+v", loaded)
	}

	if err := s.PersistReconciliation(ctx, "missing", link); err == nil {
		t.Fatal("expected NotFoundError for an unknown import id")
	}
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveAccounts(ctx, []engine.Account{{ID: "checking", Kind: engine.AccountReal}}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	boom := errRollback{}
	err := s.WithTx(ctx, func(tx store.Store) error {
		if saveErr := tx.SaveSchedules(ctx, []engine.RecurringSchedule{{
			ID: "s1", StartDate: date(2024, time.January, 1), Period: engine.Monthly,
			Amount: engine.NewAmount(-10), TargetAccountID: "checking",
		}}); saveErr != nil {
			return saveErr
		}
		return boom
	})
	if err != boom {
		t.Fatalf("got %v, want sentinel error", err)
	}

	got, err := s.LoadSchedules(ctx, store.Scope{}, engine.RealOnlyView())
	if err != nil {
		t.Fatalf("LoadSchedules: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected the schedule insert to roll back, got %d rows", len(got))
	}
}

type errRollback struct{}

func (errRollback) Error() string { return "rollback trigger" }
