package finance

import (
	"context"
	"fmt"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

// Projector is the read-side entry point: load everything a window's
// projection needs, then delegate to engine.Merge/Balances/ComputeStats.
type Projector struct {
	store store.Store
}

func NewProjector(s store.Store) *Projector {
	return &Projector{store: s}
}

// loaded bundles everything one projection needs. Project, Balances and
// the other entry points each run load afresh; nothing is kept between
// calls.
type loaded struct {
	accounts []engine.Account
	occs     []engine.Occurrence
	anchors  []engine.ManualAccountState
}

func (p *Projector) load(ctx context.Context, scope store.Scope, w engine.Window, today engine.Date, view engine.ScenarioView, includeStatsFilter bool) (loaded, error) {
	accounts, err := p.store.LoadAccounts(ctx, scope)
	if err != nil {
		return loaded{}, fmt.Errorf("load accounts: %w", err)
	}

	accountIDs := make([]engine.AccountID, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}
	anchors, err := p.store.LoadManualStates(ctx, accountIDs)
	if err != nil {
		return loaded{}, fmt.Errorf("load manual states: %w", err)
	}

	// mergeWindow may start earlier than w: engine.Balances seeds each
	// account's series from its latest anchor on or before w.Start, so
	// the flows between that anchor and w.Start must be loaded and
	// merged too, or they are silently dropped from the seeded balance.
	mergeWindow := widenToEarliestAnchor(w, anchors)

	schedules, err := p.store.LoadSchedules(ctx, scope, view)
	if err != nil {
		return loaded{}, fmt.Errorf("load schedules: %w", err)
	}
	incomes, err := p.store.LoadIncomes(ctx, scope, view)
	if err != nil {
		return loaded{}, fmt.Errorf("load incomes: %w", err)
	}
	oneOffs, err := p.store.LoadOneOffs(ctx, scope, mergeWindow, view)
	if err != nil {
		return loaded{}, fmt.Errorf("load one-offs: %w", err)
	}

	scheduleIDs := make([]engine.ScheduleID, len(schedules))
	for i, s := range schedules {
		scheduleIDs[i] = s.ID
	}
	instances, err := p.store.LoadInstances(ctx, scheduleIDs, mergeWindow)
	if err != nil {
		return loaded{}, fmt.Errorf("load instances: %w", err)
	}

	tags, err := p.store.LoadTags(ctx)
	if err != nil {
		return loaded{}, fmt.Errorf("load tags: %w", err)
	}

	in := engine.MergeInputs{
		Accounts:  accounts,
		Schedules: schedules,
		Incomes:   incomes,
		Instances: instances,
		OneOffs:   oneOffs,
		Tags:      tags,
	}
	occs, err := engine.Merge(ctx, in, mergeWindow, today, includeStatsFilter)
	if err != nil {
		return loaded{}, err
	}

	return loaded{accounts: accounts, occs: occs, anchors: anchors}, nil
}

// Project returns the merged, sorted occurrence stream for scope and
// window, under the given scenario view. load may widen its internal
// merge window to reach an anchor that predates w (see Balances); Project
// trims the result back to w since that widening is a balance-folding
// concern, not part of this method's contract.
func (p *Projector) Project(ctx context.Context, scope store.Scope, w engine.Window, today engine.Date, view engine.ScenarioView, includeStatsFilter bool) ([]engine.Occurrence, error) {
	l, err := p.load(ctx, scope, w, today, view, includeStatsFilter)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Occurrence, 0, len(l.occs))
	for _, o := range l.occs {
		if w.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Balances returns the daily balance series per account over w.
func (p *Projector) Balances(ctx context.Context, scope store.Scope, w engine.Window, today engine.Date, view engine.ScenarioView) (map[engine.AccountID][]engine.BalancePoint, error) {
	l, err := p.load(ctx, scope, w, today, view, false)
	if err != nil {
		return nil, err
	}
	return engine.Balances(ctx, l.accounts, l.occs, l.anchors, w)
}

// Stats computes statistics for a single account restricted to
// subWindow, which must be contained in w (a wider window may be
// loaded to seed an anchor that predates subWindow; see engine.Balances).
func (p *Projector) Stats(ctx context.Context, scope store.Scope, accountID engine.AccountID, w, subWindow engine.Window, today engine.Date, view engine.ScenarioView) (engine.Stats, error) {
	series, err := p.Balances(ctx, scope, w, today, view)
	if err != nil {
		return engine.Stats{}, err
	}
	return engine.ComputeStats(series[accountID], subWindow, today), nil
}

// GoalDate returns the first date the named account reaches target
// within w, loading occurrences under the given scenario view.
func (p *Projector) GoalDate(ctx context.Context, scope store.Scope, accountID engine.AccountID, w engine.Window, today engine.Date, target engine.Amount, view engine.ScenarioView) (*engine.Date, error) {
	series, err := p.Balances(ctx, scope, w, today, view)
	if err != nil {
		return nil, err
	}
	return engine.GoalReachedDate(ctx, series[accountID], target)
}
