/*
Package fixtures converts JSON-described demo data into engine types and
seeds a store/memory.Store with it. It plays the role the donor's
factory package plays for policies: JSON so a demo or test can describe
a scenario without writing Go literals, with the factory doing schema
validation and default-filling.

JSON SCHEMA (top-level object):

	{
	  "accounts": [{"id": "checking", "name": "Checking", "currency": "USD"}],
	  "schedules": [{
	    "id": "rent", "name": "Rent", "amount": "-1200.00",
	    "start_date": "2024-01-01", "period": "Monthly",
	    "target_account": "checking"
	  }],
	  "incomes": [...],
	  "one_offs": [...],
	  "manual_states": [{"id": "seed", "account": "checking", "date": "2024-01-01", "amount": "1000.00"}],
	  "tags": [{"id": "housing", "name": "Housing"}],
	  "scenarios": [{"id": "draft-budget", "name": "Draft Budget"}]
	}

Amounts and dates are always strings: ParseAmount and time.Parse both
fail loudly on malformed input rather than silently truncating, matching
the ingress-failure rule engine/amount.go documents.
*/
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store/memory"
)

type documentJSON struct {
	Accounts     []accountJSON  `json:"accounts"`
	Schedules    []scheduleJSON `json:"schedules"`
	Incomes      []incomeJSON   `json:"incomes"`
	OneOffs      []oneOffJSON   `json:"one_offs"`
	ManualStates []anchorJSON   `json:"manual_states"`
	Tags         []tagJSON      `json:"tags"`
	Scenarios    []scenarioJSON `json:"scenarios"`
}

type accountJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Owner    string `json:"owner"`
	Goal     string `json:"goal_amount"`
}

type scheduleJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Period        string `json:"period"`
	TargetAccount string `json:"target_account"`
	SourceAccount string `json:"source_account"`
	ScenarioID    string `json:"scenario_id"`
	IsSimulated   bool   `json:"is_simulated"`
	Tags          []string `json:"tags"`
}

type incomeJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Amount        string   `json:"amount"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Period        string   `json:"period"`
	TargetAccount string   `json:"target_account"`
	ScenarioID    string   `json:"scenario_id"`
	IsSimulated   bool     `json:"is_simulated"`
	Tags          []string `json:"tags"`
}

type oneOffJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	TargetAccount string `json:"target_account"`
	SourceAccount string `json:"source_account"`
	ScenarioID    string `json:"scenario_id"`
	IsSimulated   bool   `json:"is_simulated"`
}

type anchorJSON struct {
	ID      string `json:"id"`
	Account string `json:"account"`
	Date    string `json:"date"`
	Amount  string `json:"amount"`
}

type tagJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type scenarioJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bundle is the parsed, engine-typed form of a fixture document.
type Bundle struct {
	Accounts     []engine.Account
	Schedules    []engine.RecurringSchedule
	Incomes      []engine.RecurringIncome
	OneOffs      []engine.OneOffTransaction
	ManualStates []engine.ManualAccountState
	Tags         engine.TagSet
	Scenarios    []engine.Scenario
}

// LoadFile reads and parses a fixture JSON file from path.
func LoadFile(path string) (Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a fixture JSON document into a Bundle.
func Parse(raw []byte) (Bundle, error) {
	var doc documentJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Bundle{}, fmt.Errorf("fixtures: decode: %w", err)
	}

	b := Bundle{Tags: make(engine.TagSet, len(doc.Tags))}

	for _, a := range doc.Accounts {
		acct := engine.Account{
			ID:                  engine.AccountID(a.ID),
			Name:                a.Name,
			CurrencyCode:        a.Currency,
			OwnerID:             engine.OwnerID(a.Owner),
			IncludeInStatistics: true,
			Kind:                engine.AccountReal,
		}
		if a.Goal != "" {
			acct.Kind = engine.AccountGoal
			target, err := engine.ParseAmount(a.Goal)
			if err != nil {
				return Bundle{}, fmt.Errorf("fixtures: account %s goal_amount: %w", a.ID, err)
			}
			acct.TargetAmount = &target
		}
		b.Accounts = append(b.Accounts, acct)
	}

	for _, t := range doc.Tags {
		tag := engine.Tag{ID: engine.TagID(t.ID), Name: t.Name}
		if t.ParentID != nil {
			parent := engine.TagID(*t.ParentID)
			tag.ParentID = &parent
		}
		b.Tags[tag.ID] = tag
	}

	for _, s := range doc.Scenarios {
		b.Scenarios = append(b.Scenarios, engine.Scenario{ID: engine.ScenarioID(s.ID), Name: s.Name})
	}

	for _, s := range doc.Schedules {
		sched, err := parseSchedule(s)
		if err != nil {
			return Bundle{}, err
		}
		b.Schedules = append(b.Schedules, sched)
	}

	for _, i := range doc.Incomes {
		inc, err := parseIncome(i)
		if err != nil {
			return Bundle{}, err
		}
		b.Incomes = append(b.Incomes, inc)
	}

	for _, oo := range doc.OneOffs {
		transaction, err := parseOneOff(oo)
		if err != nil {
			return Bundle{}, err
		}
		b.OneOffs = append(b.OneOffs, transaction)
	}

	for _, m := range doc.ManualStates {
		anchor, err := parseAnchor(m)
		if err != nil {
			return Bundle{}, err
		}
		b.ManualStates = append(b.ManualStates, anchor)
	}

	return b, nil
}

func parseDate(s string) (engine.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return engine.Date{}, fmt.Errorf("fixtures: parse date %q: %w", s, err)
	}
	return engine.DateFromTime(t), nil
}

func parsePeriod(s string) (engine.Period, error) {
	switch engine.Period(s) {
	case engine.Daily, engine.Weekly, engine.WorkDay, engine.Monthly, engine.Quarterly, engine.HalfYearly, engine.Yearly:
		return engine.Period(s), nil
	default:
		return "", fmt.Errorf("fixtures: unknown period %q", s)
	}
}

func parseTags(ids []string) []engine.TagID {
	out := make([]engine.TagID, len(ids))
	for i, id := range ids {
		out[i] = engine.TagID(id)
	}
	return out
}

func parseScenarioID(s string) *engine.ScenarioID {
	if s == "" {
		return nil
	}
	id := engine.ScenarioID(s)
	return &id
}

func parseAccountRef(s string) *engine.AccountID {
	if s == "" {
		return nil
	}
	id := engine.AccountID(s)
	return &id
}

func parseSchedule(s scheduleJSON) (engine.RecurringSchedule, error) {
	amount, err := engine.ParseAmount(s.Amount)
	if err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("fixtures: schedule %s amount: %w", s.ID, err)
	}
	start, err := parseDate(s.StartDate)
	if err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("fixtures: schedule %s: %w", s.ID, err)
	}
	period, err := parsePeriod(s.Period)
	if err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("fixtures: schedule %s: %w", s.ID, err)
	}
	sched := engine.RecurringSchedule{
		ID:                  engine.ScheduleID(s.ID),
		Name:                s.Name,
		Amount:              amount,
		StartDate:           start,
		Period:              period,
		TargetAccountID:     engine.AccountID(s.TargetAccount),
		SourceAccountID:     parseAccountRef(s.SourceAccount),
		IncludeInStatistics: true,
		ScenarioID:          parseScenarioID(s.ScenarioID),
		IsSimulated:         s.IsSimulated,
		Tags:                parseTags(s.Tags),
	}
	if s.EndDate != "" {
		end, err := parseDate(s.EndDate)
		if err != nil {
			return engine.RecurringSchedule{}, fmt.Errorf("fixtures: schedule %s: %w", s.ID, err)
		}
		sched.EndDate = &end
	}
	return sched, nil
}

func parseIncome(i incomeJSON) (engine.RecurringIncome, error) {
	amount, err := engine.ParseAmount(i.Amount)
	if err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("fixtures: income %s amount: %w", i.ID, err)
	}
	start, err := parseDate(i.StartDate)
	if err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("fixtures: income %s: %w", i.ID, err)
	}
	period, err := parsePeriod(i.Period)
	if err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("fixtures: income %s: %w", i.ID, err)
	}
	inc := engine.RecurringIncome{
		ID:                  engine.IncomeID(i.ID),
		Name:                i.Name,
		Amount:              amount,
		StartDate:           start,
		Period:              period,
		TargetAccountID:     engine.AccountID(i.TargetAccount),
		IncludeInStatistics: true,
		ScenarioID:          parseScenarioID(i.ScenarioID),
		IsSimulated:         i.IsSimulated,
		Tags:                parseTags(i.Tags),
	}
	if i.EndDate != "" {
		end, err := parseDate(i.EndDate)
		if err != nil {
			return engine.RecurringIncome{}, fmt.Errorf("fixtures: income %s: %w", i.ID, err)
		}
		inc.EndDate = &end
	}
	return inc, nil
}

func parseOneOff(oo oneOffJSON) (engine.OneOffTransaction, error) {
	amount, err := engine.ParseAmount(oo.Amount)
	if err != nil {
		return engine.OneOffTransaction{}, fmt.Errorf("fixtures: one-off %s amount: %w", oo.ID, err)
	}
	when, err := parseDate(oo.Date)
	if err != nil {
		return engine.OneOffTransaction{}, fmt.Errorf("fixtures: one-off %s: %w", oo.ID, err)
	}
	return engine.OneOffTransaction{
		ID:                  engine.OneOffID(oo.ID),
		Name:                oo.Name,
		Amount:              amount,
		Date:                when,
		TargetAccountID:     engine.AccountID(oo.TargetAccount),
		SourceAccountID:     parseAccountRef(oo.SourceAccount),
		IncludeInStatistics: true,
		ScenarioID:          parseScenarioID(oo.ScenarioID),
		IsSimulated:         oo.IsSimulated,
	}, nil
}

func parseAnchor(m anchorJSON) (engine.ManualAccountState, error) {
	amount, err := engine.ParseAmount(m.Amount)
	if err != nil {
		return engine.ManualAccountState{}, fmt.Errorf("fixtures: manual state %s amount: %w", m.ID, err)
	}
	when, err := parseDate(m.Date)
	if err != nil {
		return engine.ManualAccountState{}, fmt.Errorf("fixtures: manual state %s: %w", m.ID, err)
	}
	return engine.ManualAccountState{
		ID:        engine.ManualStateID(m.ID),
		AccountID: engine.AccountID(m.Account),
		Date:      when,
		Amount:    amount,
	}, nil
}

// SeedInto loads the bundle's rows into an in-memory store, for demo
// binaries and tests that want realistic data without a database.
func (b Bundle) SeedInto(m *memory.Store) {
	m.Seed(b.Accounts, b.Schedules, b.Incomes, nil, b.OneOffs, b.ManualStates, nil, b.Tags, b.Scenarios)
}
