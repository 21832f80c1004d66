package engine

import "fmt"

// Reconcile links an imported transaction to exactly one of four entity
// kinds (§4.8). It is a pure data transform: the returned
// ImportedTransaction carries the new link, and the caller persists it
// under its own transactional boundary (§5). Reconciling an import that
// is already linked to a different target fails unless Clear runs
// first; re-reconciling to the same (kind, id) is a no-op success.
func Reconcile(imp ImportedTransaction, kind ReconciledKind, targetID string) (ImportedTransaction, error) {
	if imp.Reconciled != nil && (imp.Reconciled.Kind != kind || imp.Reconciled.ID != targetID) {
		return ImportedTransaction{}, NewInvariantError("ImportedTransaction", string(imp.ID),
			fmt.Sprintf("already reconciled to %s %q; clear before relinking", imp.Reconciled.Kind, imp.Reconciled.ID))
	}
	imp.Reconciled = &ReconciliationLink{Kind: kind, ID: targetID}
	return imp, nil
}

// Clear removes an imported transaction's reconciliation link, if any.
// Clearing an already-unlinked import is a no-op success.
func Clear(imp ImportedTransaction) ImportedTransaction {
	imp.Reconciled = nil
	return imp
}
