package finance

import (
	"context"
	"fmt"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

// Reconciler links imported bank transactions to the planned entities
// they correspond to. Every call round-trips through the store: load the
// import, ask engine to validate the link, persist the result.
type Reconciler struct {
	store store.Store
}

func NewReconciler(s store.Store) *Reconciler {
	return &Reconciler{store: s}
}

// Link reconciles importID against (kind, targetID) and persists the
// result. Linking an already-linked import to a different target fails
// with an Invariant error; Clear must run first.
func (r *Reconciler) Link(ctx context.Context, scope store.Scope, importID engine.ImportID, kind engine.ReconciledKind, targetID string) error {
	imp, err := r.findImport(ctx, scope, importID)
	if err != nil {
		return err
	}
	linked, err := engine.Reconcile(imp, kind, targetID)
	if err != nil {
		return err
	}
	return r.store.PersistReconciliation(ctx, importID, linked.Reconciled)
}

// Clear removes importID's reconciliation link, if any.
func (r *Reconciler) Clear(ctx context.Context, scope store.Scope, importID engine.ImportID) error {
	imp, err := r.findImport(ctx, scope, importID)
	if err != nil {
		return err
	}
	cleared := engine.Clear(imp)
	return r.store.PersistReconciliation(ctx, importID, cleared.Reconciled)
}

func (r *Reconciler) findImport(ctx context.Context, scope store.Scope, importID engine.ImportID) (engine.ImportedTransaction, error) {
	accounts, err := r.store.LoadAccounts(ctx, scope)
	if err != nil {
		return engine.ImportedTransaction{}, fmt.Errorf("load accounts: %w", err)
	}
	accountIDs := make([]engine.AccountID, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}
	imports, err := r.store.LoadImportedTransactions(ctx, accountIDs, engine.Window{Start: farPast, End: farFuture})
	if err != nil {
		return engine.ImportedTransaction{}, fmt.Errorf("load imported transactions: %w", err)
	}
	for _, imp := range imports {
		if imp.ID == importID {
			return imp, nil
		}
	}
	return engine.ImportedTransaction{}, engine.NewNotFoundError("ImportedTransaction", string(importID))
}
