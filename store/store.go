/*
Package store defines the persistence boundary the projection engine
never crosses on its own. It is the concrete shape of the "collaborator"
contract: load_accounts, load_schedules, load_incomes, load_instances,
load_one_offs, load_manual_states, persist_reconciliation.

The engine package (github.com/warp/resource-engine/engine) is a library
of pure functions over in-memory slices; it has no import of database/sql
and never will. Everything that reads or writes durable state - SQLite in
production, an in-memory map in tests - lives behind the Store interface
here. Package finance holds one for every projection and write; package
api also reads the account list through it directly.

IMPLEMENTATIONS:
  store/sqlite: production-grade, backed by mattn/go-sqlite3.
  store/memory: in-process, for tests and the demo fixtures loader.

APPEND-MOSTLY, NOT APPEND-ONLY:
  Unlike a ledger of immutable transactions, this domain's rows are
  mutated in place: a RecurringInstance moves Pending -> Paid, an
  ImportedTransaction gains or loses a reconciliation link, a scenario's
  rows flip IsSimulated. Store exposes narrow Save and Persist methods for
  exactly the mutations finance needs, not general UPDATE access.
*/
package store

import (
	"context"

	"github.com/warp/resource-engine/engine"
)

// Scope narrows a load to one owner's accounts, or to an explicit account
// list. A nil AccountIDs with a non-nil OwnerID means "every account that
// owner can see"; both nil means "every account the store holds" (useful
// for single-tenant demo deployments).
type Scope struct {
	OwnerID    *engine.OwnerID
	AccountIDs []engine.AccountID
}

// Reader is the read side of the collaborator contract: everything the
// engine needs loaded before a projection runs.
type Reader interface {
	LoadAccounts(ctx context.Context, scope Scope) ([]engine.Account, error)
	LoadSchedules(ctx context.Context, scope Scope, view engine.ScenarioView) ([]engine.RecurringSchedule, error)
	LoadIncomes(ctx context.Context, scope Scope, view engine.ScenarioView) ([]engine.RecurringIncome, error)
	LoadInstances(ctx context.Context, scheduleIDs []engine.ScheduleID, w engine.Window) ([]engine.RecurringInstance, error)
	LoadOneOffs(ctx context.Context, scope Scope, w engine.Window, view engine.ScenarioView) ([]engine.OneOffTransaction, error)
	LoadManualStates(ctx context.Context, accountIDs []engine.AccountID) ([]engine.ManualAccountState, error)
	LoadImportedTransactions(ctx context.Context, accountIDs []engine.AccountID, w engine.Window) ([]engine.ImportedTransaction, error)
	LoadTags(ctx context.Context) (engine.TagSet, error)
	LoadScenarios(ctx context.Context) ([]engine.Scenario, error)
}

// Writer is the narrow mutation surface finance drives after an engine
// call returns a new, already-computed value: the Store only persists,
// it never decides.
type Writer interface {
	PersistReconciliation(ctx context.Context, importID engine.ImportID, link *engine.ReconciliationLink) error
	SaveInstance(ctx context.Context, instance engine.RecurringInstance) error
	SaveManualState(ctx context.Context, state engine.ManualAccountState) error
	SaveSchedules(ctx context.Context, schedules []engine.RecurringSchedule) error
	SaveIncomes(ctx context.Context, incomes []engine.RecurringIncome) error
	SaveOneOffs(ctx context.Context, oneOffs []engine.OneOffTransaction) error
}

// Store is the full boundary that finance's Projector, Reconciler,
// ScenarioApplier and InstanceManager are constructed with.
type Store interface {
	Reader
	Writer
}

// TxStore is implemented by stores that can run a group of Writer calls
// atomically. finance.ScenarioApplier.Apply, which touches schedules,
// incomes, and one-offs together, runs its saves through WithTx when the
// store implements TxStore; with a plain Store it saves them one after
// another, with no rollback if a later save fails.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
