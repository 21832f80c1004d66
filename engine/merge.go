package engine

import (
	"context"
	"sort"
)

// MergeInputs bundles input rows already filtered to the caller's chosen
// scenario view - ScenarioOverlay runs before Merge, per §4.7 ("the
// overlay is a pre-filter on LedgerMerge's inputs").
type MergeInputs struct {
	Accounts  []Account
	Schedules []RecurringSchedule
	Incomes   []RecurringIncome
	Instances []RecurringInstance
	OneOffs   []OneOffTransaction
	Tags      TagSet
}

// Merge runs the Expander over all schedules and incomes with per-date
// instance suppression applied, emits instance and one-off occurrences
// directly, and returns one chronological, per-account sorted list
// (§4.3). includeStatsFilter, when true, drops occurrences whose
// originating row has IncludeInStatistics=false; BalanceEngine always
// consumes the unfiltered merge (the filter is a Statistics-view concern
// only).
func Merge(ctx context.Context, in MergeInputs, w Window, today Date, includeStatsFilter bool) ([]Occurrence, error) {
	if err := validateMergeAccounts(in); err != nil {
		return nil, err
	}

	scheduleByID := make(map[ScheduleID]RecurringSchedule, len(in.Schedules))
	for _, s := range in.Schedules {
		scheduleByID[s.ID] = s
	}

	suppressedBySchedule := make(map[ScheduleID]map[Date]bool)
	for _, inst := range in.Instances {
		m := suppressedBySchedule[inst.ScheduleID]
		if m == nil {
			m = make(map[Date]bool)
			suppressedBySchedule[inst.ScheduleID] = m
		}
		m[inst.DueDate] = true
	}

	var all []Occurrence

	for _, s := range in.Schedules {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		occs, err := ExpandSchedule(ctx, s, w, today, suppressedBySchedule[s.ID], in.Tags)
		if err != nil {
			return nil, err
		}
		all = append(all, occs...)
	}

	for _, inc := range in.Incomes {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		occs, err := ExpandIncome(ctx, inc, w, today, nil, in.Tags)
		if err != nil {
			return nil, err
		}
		all = append(all, occs...)
	}

	for _, inst := range in.Instances {
		if !w.Contains(effectiveInstanceDate(inst)) {
			continue
		}
		occs, err := instanceOccurrences(inst, scheduleByID, in.Tags)
		if err != nil {
			return nil, err
		}
		all = append(all, occs...)
	}

	for _, oo := range in.OneOffs {
		if !w.Contains(oo.Date) {
			continue
		}
		all = append(all, oneOffOccurrences(oo)...)
	}

	if includeStatsFilter {
		all = filterIncludeInStatistics(all)
	}

	sortOccurrences(all)
	return all, nil
}

func validateMergeAccounts(in MergeInputs) error {
	known := make(map[AccountID]bool, len(in.Accounts))
	for _, a := range in.Accounts {
		known[a.ID] = true
	}
	check := func(kind, id string, accountID AccountID) error {
		if !known[accountID] {
			return NewNotFoundError("Account", string(accountID))
		}
		_ = kind
		_ = id
		return nil
	}
	for _, s := range in.Schedules {
		if err := check("RecurringSchedule", string(s.ID), s.TargetAccountID); err != nil {
			return err
		}
		if s.SourceAccountID != nil {
			if err := check("RecurringSchedule", string(s.ID), *s.SourceAccountID); err != nil {
				return err
			}
		}
	}
	for _, inc := range in.Incomes {
		if err := check("RecurringIncome", string(inc.ID), inc.TargetAccountID); err != nil {
			return err
		}
	}
	for _, oo := range in.OneOffs {
		if err := check("OneOffTransaction", string(oo.ID), oo.TargetAccountID); err != nil {
			return err
		}
		if oo.SourceAccountID != nil {
			if err := check("OneOffTransaction", string(oo.ID), *oo.SourceAccountID); err != nil {
				return err
			}
		}
	}
	return nil
}

func effectiveInstanceDate(i RecurringInstance) Date {
	if i.PaidDate != nil {
		return *i.PaidDate
	}
	return i.DueDate
}

func instanceOccurrences(i RecurringInstance, scheduleByID map[ScheduleID]RecurringSchedule, tags TagSet) ([]Occurrence, error) {
	if i.Status == InstanceSkipped {
		return nil, nil
	}
	s, ok := scheduleByID[i.ScheduleID]
	if !ok {
		return nil, NewInvariantError("RecurringInstance", string(i.ID), "schedule "+string(i.ScheduleID)+" not found")
	}

	date := i.DueDate
	amount := i.ExpectedAmount
	var paidOn *Date
	if i.Status == InstancePaid {
		if i.PaidDate != nil {
			d := *i.PaidDate
			date = d
			paidOn = &d
		}
		if i.PaidAmount != nil {
			amount = *i.PaidAmount
		}
	}

	te := newTagExpander(tags)
	expandedTags := te.expand(i.Tags)

	out := []Occurrence{{
		Date:                date,
		Amount:              amount,
		AccountID:           s.TargetAccountID,
		Tags:                expandedTags,
		PaidOn:              paidOn,
		Origin:              OriginInstanceTarget,
		IncludeInStatistics: s.IncludeInStatistics,
		SourceID:            string(i.ID),
	}}
	if s.SourceAccountID != nil {
		out = append(out, Occurrence{
			Date:                date,
			Amount:              amount.Neg(),
			AccountID:           *s.SourceAccountID,
			Tags:                expandedTags,
			PaidOn:              paidOn,
			Origin:              OriginInstanceSource,
			IncludeInStatistics: s.IncludeInStatistics,
			SourceID:            string(i.ID),
		})
	}
	return out, nil
}

// oneOffOccurrences: the Origin enum has no separate "OneOffSource"
// variant, so a one-off's mirrored source leg is emitted with the same
// OriginOneOff tag as the target leg.
func oneOffOccurrences(oo OneOffTransaction) []Occurrence {
	out := []Occurrence{{
		Date:                oo.Date,
		Amount:              oo.Amount,
		AccountID:           oo.TargetAccountID,
		Origin:              OriginOneOff,
		IncludeInStatistics: oo.IncludeInStatistics,
		SourceID:            string(oo.ID),
	}}
	if oo.SourceAccountID != nil {
		out = append(out, Occurrence{
			Date:                oo.Date,
			Amount:              oo.Amount.Neg(),
			AccountID:           *oo.SourceAccountID,
			Origin:              OriginOneOff,
			IncludeInStatistics: oo.IncludeInStatistics,
			SourceID:            string(oo.ID),
		})
	}
	return out
}

func filterIncludeInStatistics(occs []Occurrence) []Occurrence {
	out := make([]Occurrence, 0, len(occs))
	for _, o := range occs {
		if o.IncludeInStatistics {
			out = append(out, o)
		}
	}
	return out
}

// sortOccurrences sorts by (account_id, date, stable-origin-order);
// ties beyond origin break by insertion order (§4.3).
func sortOccurrences(occs []Occurrence) {
	for i := range occs {
		occs[i].seq = i
	}
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		ra, rb := originRank(a.Origin), originRank(b.Origin)
		if ra != rb {
			return ra < rb
		}
		return a.seq < b.seq
	})
}
