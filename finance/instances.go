package finance

import (
	"context"
	"fmt"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

// InstanceManager drives a RecurringInstance through its state machine
// and persists the result. It is the only place that assigns
// PaidDate/PaidAmount, since engine.RecurringInstance.CanTransitionTo
// only reports whether a move is legal, not what the new row looks like.
type InstanceManager struct {
	store store.Store
}

func NewInstanceManager(s store.Store) *InstanceManager {
	return &InstanceManager{store: s}
}

// MarkPaid transitions instance to Paid with the given paid date/amount.
func (m *InstanceManager) MarkPaid(ctx context.Context, instance engine.RecurringInstance, paidDate engine.Date, paidAmount engine.Amount) (engine.RecurringInstance, error) {
	if !instance.CanTransitionTo(engine.InstancePaid) {
		return engine.RecurringInstance{}, fmt.Errorf("finance: instance %s cannot move from %s to %s", instance.ID, instance.Status, engine.InstancePaid)
	}
	instance.Status = engine.InstancePaid
	instance.PaidDate = &paidDate
	instance.PaidAmount = &paidAmount
	if err := m.store.SaveInstance(ctx, instance); err != nil {
		return engine.RecurringInstance{}, err
	}
	return instance, nil
}

// MarkSkipped transitions instance to Skipped, clearing any paid state.
func (m *InstanceManager) MarkSkipped(ctx context.Context, instance engine.RecurringInstance) (engine.RecurringInstance, error) {
	if !instance.CanTransitionTo(engine.InstanceSkipped) {
		return engine.RecurringInstance{}, fmt.Errorf("finance: instance %s cannot move from %s to %s", instance.ID, instance.Status, engine.InstanceSkipped)
	}
	instance.Status = engine.InstanceSkipped
	instance.PaidDate = nil
	instance.PaidAmount = nil
	if err := m.store.SaveInstance(ctx, instance); err != nil {
		return engine.RecurringInstance{}, err
	}
	return instance, nil
}

// Reopen moves a Paid or Skipped instance back to Pending.
func (m *InstanceManager) Reopen(ctx context.Context, instance engine.RecurringInstance) (engine.RecurringInstance, error) {
	if !instance.CanTransitionTo(engine.InstancePending) {
		return engine.RecurringInstance{}, fmt.Errorf("finance: instance %s cannot move from %s to %s", instance.ID, instance.Status, engine.InstancePending)
	}
	instance.Status = engine.InstancePending
	instance.PaidDate = nil
	instance.PaidAmount = nil
	if err := m.store.SaveInstance(ctx, instance); err != nil {
		return engine.RecurringInstance{}, err
	}
	return instance, nil
}
