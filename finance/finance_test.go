package finance

import (
	"context"
	"testing"
	"time"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
	"github.com/warp/resource-engine/store/memory"
)

func date(y int, m time.Month, day int) engine.Date { return engine.NewDate(y, m, day) }

func TestProjector_Balances(t *testing.T) {
	mem := memory.New()
	account := engine.Account{ID: "checking", Kind: engine.AccountReal, IncludeInStatistics: true}
	mem.Seed(
		[]engine.Account{account},
		nil, nil, nil, nil,
		[]engine.ManualAccountState{{ID: "anchor1", AccountID: "checking", Date: date(2024, time.January, 1), Amount: engine.NewAmount(1000)}},
		nil, nil, nil,
	)

	p := NewProjector(mem)
	w := engine.Window{Start: date(2024, time.January, 1), End: date(2024, time.January, 10)}
	series, err := p.Balances(context.Background(), defaultScope(), w, date(2024, time.January, 1), engine.RealOnlyView())
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	got := series["checking"]
	if len(got) != 10 {
		t.Fatalf("got %d points, want 10", len(got))
	}
	if got[0].Balance.String() != "1000.0000" {
		t.Errorf("balance(1/1) = %s, want 1000.0000", got[0].Balance)
	}
}

func TestProjector_Balances_WidensForAnchorBeforeWindow(t *testing.T) {
	mem := memory.New()
	account := engine.Account{ID: "checking", Kind: engine.AccountReal, IncludeInStatistics: true}
	oneOff := engine.OneOffTransaction{
		ID:              "oo1",
		Amount:          engine.NewAmount(-100),
		Date:            date(2024, time.January, 10),
		TargetAccountID: "checking",
	}
	mem.Seed(
		[]engine.Account{account},
		nil, nil, nil,
		[]engine.OneOffTransaction{oneOff},
		[]engine.ManualAccountState{{ID: "anchor1", AccountID: "checking", Date: date(2024, time.January, 1), Amount: engine.NewAmount(1000)}},
		nil, nil, nil,
	)

	p := NewProjector(mem)
	// The requested window starts after both the anchor and the
	// intervening one-off; Projector must widen the merge window back
	// to the anchor so the one-off is loaded and folded into the seed.
	w := engine.Window{Start: date(2024, time.January, 15), End: date(2024, time.January, 20)}
	series, err := p.Balances(context.Background(), defaultScope(), w, date(2024, time.January, 1), engine.RealOnlyView())
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	got := series["checking"]
	if len(got) != 6 {
		t.Fatalf("got %d points, want 6", len(got))
	}
	if got[0].Balance.String() != "900.0000" {
		t.Errorf("balance(1/15) = %s, want 900.0000 (anchor 1000 minus the 1/10 one-off)", got[0].Balance)
	}
}

func defaultScope() store.Scope { return store.Scope{} }

func TestScenarioApplier_Apply(t *testing.T) {
	mem := memory.New()
	sim := engine.ScenarioID("draft-budget")
	account := engine.Account{ID: "checking"}
	schedule := engine.RecurringSchedule{
		ID:              "s1",
		StartDate:       date(2024, time.January, 1),
		Period:          engine.Monthly,
		Amount:          engine.NewAmount(-50),
		TargetAccountID: "checking",
		IsSimulated:     true,
		ScenarioID:      &sim,
	}
	mem.Seed([]engine.Account{account}, []engine.RecurringSchedule{schedule}, nil, nil, nil, nil, nil, nil, nil)

	applier := NewScenarioApplier(mem)
	if err := applier.Apply(context.Background(), defaultScope(), sim); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := mem.LoadSchedules(context.Background(), defaultScope(), engine.RealOnlyView())
	if err != nil {
		t.Fatalf("LoadSchedules: %v", err)
	}
	if len(got) != 1 || got[0].IsSimulated {
		t.Fatalf("expected schedule to be real after Apply, got %+v", got)
	}
}

func TestReconciler_LinkThenClear(t *testing.T) {
	mem := memory.New()
	account := engine.Account{ID: "checking"}
	imp := engine.ImportedTransaction{ID: "imp1", AccountID: "checking", Date: date(2024, time.March, 1), Amount: engine.NewAmount(-42)}
	mem.Seed([]engine.Account{account}, nil, nil, nil, nil, nil, []engine.ImportedTransaction{imp}, nil, nil)

	r := NewReconciler(mem)
	if err := r.Link(context.Background(), defaultScope(), "imp1", engine.ReconciledOneOff, "oo1"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	loaded, err := mem.LoadImportedTransactions(context.Background(), []engine.AccountID{"checking"}, engine.Window{Start: farPast, End: farFuture})
	if err != nil {
		t.Fatalf("LoadImportedTransactions: %v", err)
	}
	if loaded[0].Reconciled == nil || loaded[0].Reconciled.ID != "oo1" {
		t.Fatalf("got %+v, want linked to oo1", loaded[0].Reconciled)
	}

	if err := r.Clear(context.Background(), defaultScope(), "imp1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	loaded, err = mem.LoadImportedTransactions(context.Background(), []engine.AccountID{"checking"}, engine.Window{Start: farPast, End: farFuture})
	if err != nil {
		t.Fatalf("LoadImportedTransactions: %v", err)
	}
	if loaded[0].Reconciled != nil {
		t.Fatal("expected Reconciled to be nil after Clear")
	}
}

func TestInstanceManager_FullLifecycle(t *testing.T) {
	mem := memory.New()
	instance := engine.RecurringInstance{
		ID:             "i1",
		ScheduleID:     "s1",
		Status:         engine.InstancePending,
		DueDate:        date(2024, time.May, 10),
		ExpectedAmount: engine.NewAmount(-100),
	}

	mgr := NewInstanceManager(mem)
	paid, err := mgr.MarkPaid(context.Background(), instance, date(2024, time.May, 12), engine.NewAmount(-120))
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != engine.InstancePaid || paid.PaidAmount.String() != "-120.0000" {
		t.Fatalf("got %+v, want Paid/-120.0000", paid)
	}

	reopened, err := mgr.Reopen(context.Background(), paid)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Status != engine.InstancePending || reopened.PaidDate != nil {
		t.Fatalf("got %+v, want Pending with no paid date", reopened)
	}

	if _, err := mgr.MarkPaid(context.Background(), reopened, date(2024, time.May, 12), engine.NewAmount(-120)); err != nil {
		t.Fatalf("MarkPaid after reopen: %v", err)
	}
}
