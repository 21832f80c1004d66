// Package memory is an in-process store.Store, used by tests and by
// fixtures.Bundle.SeedInto; the demo binary seeds its SQLite store
// instead. It keeps every row in a map
// guarded by a single mutex; WithTx snapshots the maps before running
// the callback and restores them on error, mirroring how a real
// transaction rolls back.
package memory

import (
	"context"
	"sync"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

type Store struct {
	mu sync.RWMutex

	accounts  map[engine.AccountID]engine.Account
	schedules map[engine.ScheduleID]engine.RecurringSchedule
	incomes   map[engine.IncomeID]engine.RecurringIncome
	instances map[engine.InstanceID]engine.RecurringInstance
	oneOffs   map[engine.OneOffID]engine.OneOffTransaction
	manual    map[engine.ManualStateID]engine.ManualAccountState
	imports   map[engine.ImportID]engine.ImportedTransaction
	tags      engine.TagSet
	scenarios map[engine.ScenarioID]engine.Scenario
}

func New() *Store {
	return &Store{
		accounts:  make(map[engine.AccountID]engine.Account),
		schedules: make(map[engine.ScheduleID]engine.RecurringSchedule),
		incomes:   make(map[engine.IncomeID]engine.RecurringIncome),
		instances: make(map[engine.InstanceID]engine.RecurringInstance),
		oneOffs:   make(map[engine.OneOffID]engine.OneOffTransaction),
		manual:    make(map[engine.ManualStateID]engine.ManualAccountState),
		imports:   make(map[engine.ImportID]engine.ImportedTransaction),
		tags:      make(engine.TagSet),
		scenarios: make(map[engine.ScenarioID]engine.Scenario),
	}
}

// Seed is a bulk loader for fixtures and tests; it bypasses the
// transactional Save* path since there is nothing to roll back during
// setup.
func (s *Store) Seed(
	accounts []engine.Account,
	schedules []engine.RecurringSchedule,
	incomes []engine.RecurringIncome,
	instances []engine.RecurringInstance,
	oneOffs []engine.OneOffTransaction,
	manual []engine.ManualAccountState,
	imports []engine.ImportedTransaction,
	tags engine.TagSet,
	scenarios []engine.Scenario,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	for _, sc := range schedules {
		s.schedules[sc.ID] = sc
	}
	for _, inc := range incomes {
		s.incomes[inc.ID] = inc
	}
	for _, i := range instances {
		s.instances[i.ID] = i
	}
	for _, oo := range oneOffs {
		s.oneOffs[oo.ID] = oo
	}
	for _, m := range manual {
		s.manual[m.ID] = m
	}
	for _, imp := range imports {
		s.imports[imp.ID] = imp
	}
	for id, t := range tags {
		s.tags[id] = t
	}
	for _, sn := range scenarios {
		s.scenarios[sn.ID] = sn
	}
}

func inScope(scope store.Scope, id engine.AccountID, owner engine.OwnerID) bool {
	if len(scope.AccountIDs) > 0 {
		for _, a := range scope.AccountIDs {
			if a == id {
				return true
			}
		}
		return false
	}
	if scope.OwnerID != nil {
		return *scope.OwnerID == owner
	}
	return true
}

func (s *Store) LoadAccounts(_ context.Context, scope store.Scope) ([]engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []engine.Account
	for _, a := range s.accounts {
		if inScope(scope, a.ID, a.OwnerID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) LoadSchedules(_ context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []engine.RecurringSchedule
	for _, sc := range s.schedules {
		if scopeHasAccount(scope, sc.TargetAccountID, s.accounts) {
			all = append(all, sc)
		}
	}
	return view.FilterSchedules(all), nil
}

func (s *Store) LoadIncomes(_ context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []engine.RecurringIncome
	for _, inc := range s.incomes {
		if scopeHasAccount(scope, inc.TargetAccountID, s.accounts) {
			all = append(all, inc)
		}
	}
	return view.FilterIncomes(all), nil
}

func (s *Store) LoadInstances(_ context.Context, scheduleIDs []engine.ScheduleID, w engine.Window) ([]engine.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[engine.ScheduleID]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	var out []engine.RecurringInstance
	for _, i := range s.instances {
		if !wanted[i.ScheduleID] {
			continue
		}
		if w.Contains(i.DueDate) || (i.PaidDate != nil && w.Contains(*i.PaidDate)) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *Store) LoadOneOffs(_ context.Context, scope store.Scope, w engine.Window, view engine.ScenarioView) ([]engine.OneOffTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []engine.OneOffTransaction
	for _, oo := range s.oneOffs {
		if w.Contains(oo.Date) && scopeHasAccount(scope, oo.TargetAccountID, s.accounts) {
			all = append(all, oo)
		}
	}
	return view.FilterOneOffs(all), nil
}

func (s *Store) LoadManualStates(_ context.Context, accountIDs []engine.AccountID) ([]engine.ManualAccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[engine.AccountID]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []engine.ManualAccountState
	for _, m := range s.manual {
		if wanted[m.AccountID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) LoadImportedTransactions(_ context.Context, accountIDs []engine.AccountID, w engine.Window) ([]engine.ImportedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[engine.AccountID]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []engine.ImportedTransaction
	for _, imp := range s.imports {
		if wanted[imp.AccountID] && w.Contains(imp.Date) {
			out = append(out, imp)
		}
	}
	return out, nil
}

func (s *Store) LoadTags(_ context.Context) (engine.TagSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(engine.TagSet, len(s.tags))
	for id, t := range s.tags {
		out[id] = t
	}
	return out, nil
}

func (s *Store) LoadScenarios(_ context.Context) ([]engine.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []engine.Scenario
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	return out, nil
}

func scopeHasAccount(scope store.Scope, id engine.AccountID, accounts map[engine.AccountID]engine.Account) bool {
	a, ok := accounts[id]
	if !ok {
		return len(scope.AccountIDs) == 0 && scope.OwnerID == nil
	}
	return inScope(scope, id, a.OwnerID)
}

func (s *Store) PersistReconciliation(_ context.Context, importID engine.ImportID, link *engine.ReconciliationLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.imports[importID]
	if !ok {
		return engine.NewNotFoundError("ImportedTransaction", string(importID))
	}
	imp.Reconciled = link
	s.imports[importID] = imp
	return nil
}

func (s *Store) SaveInstance(_ context.Context, instance engine.RecurringInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[instance.ID] = instance
	return nil
}

func (s *Store) SaveManualState(_ context.Context, state engine.ManualAccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual[state.ID] = state
	return nil
}

func (s *Store) SaveSchedules(_ context.Context, schedules []engine.RecurringSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range schedules {
		s.schedules[sc.ID] = sc
	}
	return nil
}

func (s *Store) SaveIncomes(_ context.Context, incomes []engine.RecurringIncome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inc := range incomes {
		s.incomes[inc.ID] = inc
	}
	return nil
}

func (s *Store) SaveOneOffs(_ context.Context, oneOffs []engine.OneOffTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, oo := range oneOffs {
		s.oneOffs[oo.ID] = oo
	}
	return nil
}

// WithTx snapshots every map before running fn and restores them if fn
// returns an error, simulating rollback for a store that otherwise
// writes directly.
func (s *Store) WithTx(_ context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.copyMaps()
	view := &txView{s: s}
	if err := fn(view); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type mapSnapshot struct {
	schedules map[engine.ScheduleID]engine.RecurringSchedule
	incomes   map[engine.IncomeID]engine.RecurringIncome
	instances map[engine.InstanceID]engine.RecurringInstance
	oneOffs   map[engine.OneOffID]engine.OneOffTransaction
	manual    map[engine.ManualStateID]engine.ManualAccountState
	imports   map[engine.ImportID]engine.ImportedTransaction
}

func (s *Store) copyMaps() mapSnapshot {
	snap := mapSnapshot{
		schedules: make(map[engine.ScheduleID]engine.RecurringSchedule, len(s.schedules)),
		incomes:   make(map[engine.IncomeID]engine.RecurringIncome, len(s.incomes)),
		instances: make(map[engine.InstanceID]engine.RecurringInstance, len(s.instances)),
		oneOffs:   make(map[engine.OneOffID]engine.OneOffTransaction, len(s.oneOffs)),
		manual:    make(map[engine.ManualStateID]engine.ManualAccountState, len(s.manual)),
		imports:   make(map[engine.ImportID]engine.ImportedTransaction, len(s.imports)),
	}
	for k, v := range s.schedules {
		snap.schedules[k] = v
	}
	for k, v := range s.incomes {
		snap.incomes[k] = v
	}
	for k, v := range s.instances {
		snap.instances[k] = v
	}
	for k, v := range s.oneOffs {
		snap.oneOffs[k] = v
	}
	for k, v := range s.manual {
		snap.manual[k] = v
	}
	for k, v := range s.imports {
		snap.imports[k] = v
	}
	return snap
}

func (s *Store) restore(snap mapSnapshot) {
	s.schedules = snap.schedules
	s.incomes = snap.incomes
	s.instances = snap.instances
	s.oneOffs = snap.oneOffs
	s.manual = snap.manual
	s.imports = snap.imports
}

// txView forwards reads to the parent directly (the outer mutex is
// already held by WithTx) so fn can call Load*/Save* without deadlocking.
type txView struct {
	s *Store
}

func (v *txView) LoadAccounts(ctx context.Context, scope store.Scope) ([]engine.Account, error) {
	var out []engine.Account
	for _, a := range v.s.accounts {
		if inScope(scope, a.ID, a.OwnerID) {
			out = append(out, a)
		}
	}
	return out, nil
}
func (v *txView) LoadSchedules(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringSchedule, error) {
	var all []engine.RecurringSchedule
	for _, sc := range v.s.schedules {
		all = append(all, sc)
	}
	return view.FilterSchedules(all), nil
}
func (v *txView) LoadIncomes(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringIncome, error) {
	var all []engine.RecurringIncome
	for _, inc := range v.s.incomes {
		all = append(all, inc)
	}
	return view.FilterIncomes(all), nil
}
func (v *txView) LoadInstances(ctx context.Context, scheduleIDs []engine.ScheduleID, w engine.Window) ([]engine.RecurringInstance, error) {
	return v.s.LoadInstances(ctx, scheduleIDs, w)
}
func (v *txView) LoadOneOffs(ctx context.Context, scope store.Scope, w engine.Window, view engine.ScenarioView) ([]engine.OneOffTransaction, error) {
	return v.s.LoadOneOffs(ctx, scope, w, view)
}
func (v *txView) LoadManualStates(ctx context.Context, accountIDs []engine.AccountID) ([]engine.ManualAccountState, error) {
	return v.s.LoadManualStates(ctx, accountIDs)
}
func (v *txView) LoadImportedTransactions(ctx context.Context, accountIDs []engine.AccountID, w engine.Window) ([]engine.ImportedTransaction, error) {
	return v.s.LoadImportedTransactions(ctx, accountIDs, w)
}
func (v *txView) LoadTags(ctx context.Context) (engine.TagSet, error) { return v.s.LoadTags(ctx) }
func (v *txView) LoadScenarios(ctx context.Context) ([]engine.Scenario, error) {
	return v.s.LoadScenarios(ctx)
}
func (v *txView) PersistReconciliation(ctx context.Context, importID engine.ImportID, link *engine.ReconciliationLink) error {
	imp, ok := v.s.imports[importID]
	if !ok {
		return engine.NewNotFoundError("ImportedTransaction", string(importID))
	}
	imp.Reconciled = link
	v.s.imports[importID] = imp
	return nil
}
func (v *txView) SaveInstance(ctx context.Context, instance engine.RecurringInstance) error {
	v.s.instances[instance.ID] = instance
	return nil
}
func (v *txView) SaveManualState(ctx context.Context, state engine.ManualAccountState) error {
	v.s.manual[state.ID] = state
	return nil
}
func (v *txView) SaveSchedules(ctx context.Context, schedules []engine.RecurringSchedule) error {
	for _, sc := range schedules {
		v.s.schedules[sc.ID] = sc
	}
	return nil
}
func (v *txView) SaveIncomes(ctx context.Context, incomes []engine.RecurringIncome) error {
	for _, inc := range incomes {
		v.s.incomes[inc.ID] = inc
	}
	return nil
}
func (v *txView) SaveOneOffs(ctx context.Context, oneOffs []engine.OneOffTransaction) error {
	for _, oo := range oneOffs {
		v.s.oneOffs[oo.ID] = oo
	}
	return nil
}
