package finance

import (
	"context"
	"fmt"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

// ScenarioApplier promotes a scenario's rows from simulated to real.
// Applying touches schedules, incomes, and one-offs in a single pass;
// when the store supports transactions, all three Save calls commit or
// roll back together.
type ScenarioApplier struct {
	store store.Store
}

func NewScenarioApplier(s store.Store) *ScenarioApplier {
	return &ScenarioApplier{store: s}
}

// Apply loads scope's rows tagged with scenario, flips IsSimulated to
// false on the ones scenario owns, and persists the result.
func (a *ScenarioApplier) Apply(ctx context.Context, scope store.Scope, scenario engine.ScenarioID) error {
	view := engine.ScenarioViewFor(scenario)

	schedules, err := a.store.LoadSchedules(ctx, scope, view)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	incomes, err := a.store.LoadIncomes(ctx, scope, view)
	if err != nil {
		return fmt.Errorf("load incomes: %w", err)
	}
	oneOffs, err := a.store.LoadOneOffs(ctx, scope, engine.Window{Start: farPast, End: farFuture}, view)
	if err != nil {
		return fmt.Errorf("load one-offs: %w", err)
	}

	newSchedules, newIncomes, newOneOffs := engine.ApplyScenario(scenario, schedules, incomes, oneOffs)

	save := func(s store.Store) error {
		if err := s.SaveSchedules(ctx, newSchedules); err != nil {
			return fmt.Errorf("save schedules: %w", err)
		}
		if err := s.SaveIncomes(ctx, newIncomes); err != nil {
			return fmt.Errorf("save incomes: %w", err)
		}
		if err := s.SaveOneOffs(ctx, newOneOffs); err != nil {
			return fmt.Errorf("save one-offs: %w", err)
		}
		return nil
	}

	if tx, ok := a.store.(store.TxStore); ok {
		return tx.WithTx(ctx, save)
	}
	return save(a.store)
}
