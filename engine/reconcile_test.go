package engine

import (
	"testing"
	"time"
)

func TestReconcile_LinksUnreconciledImport(t *testing.T) {
	imp := ImportedTransaction{ID: "imp1", Date: d(2024, time.May, 1), Amount: NewAmount(-42)}
	got, err := Reconcile(imp, ReconciledOneOff, "oo1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got.Reconciled == nil || got.Reconciled.Kind != ReconciledOneOff || got.Reconciled.ID != "oo1" {
		t.Fatalf("got %+v, want linked to ReconciledOneOff/oo1", got.Reconciled)
	}
}

func TestReconcile_ReReconcilingSameTargetIsNoOp(t *testing.T) {
	imp := ImportedTransaction{ID: "imp1", Reconciled: &ReconciliationLink{Kind: ReconciledOneOff, ID: "oo1"}}
	got, err := Reconcile(imp, ReconciledOneOff, "oo1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got.Reconciled.ID != "oo1" {
		t.Fatalf("got %+v, want unchanged link", got.Reconciled)
	}
}

func TestReconcile_RelinkingWithoutClearFails(t *testing.T) {
	imp := ImportedTransaction{ID: "imp1", Reconciled: &ReconciliationLink{Kind: ReconciledOneOff, ID: "oo1"}}
	_, err := Reconcile(imp, ReconciledOneOff, "oo2")
	if !IsInvariant(err) {
		t.Fatalf("err = %v, want Invariant", err)
	}
}

func TestReconcile_ClearThenRelinkSucceeds(t *testing.T) {
	imp := ImportedTransaction{ID: "imp1", Reconciled: &ReconciliationLink{Kind: ReconciledOneOff, ID: "oo1"}}
	cleared := Clear(imp)
	if cleared.Reconciled != nil {
		t.Fatal("expected Reconciled to be nil after Clear")
	}
	got, err := Reconcile(cleared, ReconciledRecurringInstance, "inst1")
	if err != nil {
		t.Fatalf("Reconcile after Clear: %v", err)
	}
	if got.Reconciled.Kind != ReconciledRecurringInstance || got.Reconciled.ID != "inst1" {
		t.Fatalf("got %+v, want linked to ReconciledRecurringInstance/inst1", got.Reconciled)
	}
}

func TestClear_UnlinkedImportIsNoOp(t *testing.T) {
	imp := ImportedTransaction{ID: "imp1"}
	got := Clear(imp)
	if got.Reconciled != nil {
		t.Fatal("expected nil Reconciled")
	}
}
