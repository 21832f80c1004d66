package engine

// ScenarioView selects which rows participate in Merge's input set
// (§4.7). The zero value is the real-only view.
type ScenarioView struct {
	ScenarioID *ScenarioID
}

// RealOnlyView excludes every row with IsSimulated=true.
func RealOnlyView() ScenarioView { return ScenarioView{} }

// ScenarioViewFor includes real rows plus rows tagged with scenario id,
// regardless of IsSimulated.
func ScenarioViewFor(id ScenarioID) ScenarioView { return ScenarioView{ScenarioID: &id} }

func (v ScenarioView) includes(isSimulated bool, rowScenario *ScenarioID) bool {
	if v.ScenarioID != nil && rowScenario != nil && *rowScenario == *v.ScenarioID {
		return true
	}
	return !isSimulated
}

// FilterSchedules, FilterIncomes, FilterOneOffs are the pure predicates
// a caller applies to its loaded rows before calling Merge.
func (v ScenarioView) FilterSchedules(in []RecurringSchedule) []RecurringSchedule {
	out := make([]RecurringSchedule, 0, len(in))
	for _, s := range in {
		if v.includes(s.IsSimulated, s.ScenarioID) {
			out = append(out, s)
		}
	}
	return out
}

func (v ScenarioView) FilterIncomes(in []RecurringIncome) []RecurringIncome {
	out := make([]RecurringIncome, 0, len(in))
	for _, inc := range in {
		if v.includes(inc.IsSimulated, inc.ScenarioID) {
			out = append(out, inc)
		}
	}
	return out
}

func (v ScenarioView) FilterOneOffs(in []OneOffTransaction) []OneOffTransaction {
	out := make([]OneOffTransaction, 0, len(in))
	for _, oo := range in {
		if v.includes(oo.IsSimulated, oo.ScenarioID) {
			out = append(out, oo)
		}
	}
	return out
}

// ApplyScenario flips IsSimulated=false on every row carrying scenario,
// across every row kind that can be scenario-tagged: schedules, incomes,
// and one-offs move out of simulation in the same pass rather than one
// kind at a time. It returns new slices rather than mutating in place -
// Merge's pure-function contract extends to this write path too; the
// caller persists the result under its own transactional boundary
// (§5). Applying twice produces the same output as applying once.
func ApplyScenario(scenario ScenarioID, schedules []RecurringSchedule, incomes []RecurringIncome, oneOffs []OneOffTransaction) ([]RecurringSchedule, []RecurringIncome, []OneOffTransaction) {
	outS := make([]RecurringSchedule, len(schedules))
	for i, s := range schedules {
		outS[i] = s
		if s.ScenarioID != nil && *s.ScenarioID == scenario {
			outS[i].IsSimulated = false
		}
	}
	outI := make([]RecurringIncome, len(incomes))
	for i, inc := range incomes {
		outI[i] = inc
		if inc.ScenarioID != nil && *inc.ScenarioID == scenario {
			outI[i].IsSimulated = false
		}
	}
	outO := make([]OneOffTransaction, len(oneOffs))
	for i, oo := range oneOffs {
		outO[i] = oo
		if oo.ScenarioID != nil && *oo.ScenarioID == scenario {
			outO[i].IsSimulated = false
		}
	}
	return outS, outI, outO
}
