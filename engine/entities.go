package engine

// This file holds the value types of the data model (§3). They are the
// inputs the engine's pure functions consume; callers (package finance,
// backed by package store) are responsible for loading them from
// whatever persistence they use and for enforcing the CRUD-time
// invariants noted below - the engine itself only enforces invariants
// that affect a computation's correctness (e.g. end_date >= start_date
// is tolerated, not rejected, per §4.1: "the enumerator tolerates
// end_date < start_date by returning empty").

type AccountKind string

const (
	AccountReal AccountKind = "Real"
	AccountGoal AccountKind = "Goal"
)

// Account is immutable in identity, mutable in its other attributes.
type Account struct {
	ID                  AccountID
	Name                string
	CurrencyCode        string
	OwnerID             OwnerID
	IncludeInStatistics bool
	Kind                AccountKind
	TargetAmount        *Amount // Goal accounts only
	LedgerName          *string
}

// Period is a closed tagged union over the seven recurrence rules. It is
// modeled as a Go string-backed enum rather than dispatched by raw
// string comparisons below ingress, per the design notes' call to make
// the enumerator a single function matching on the variant.
type Period string

const (
	Daily      Period = "Daily"
	Weekly     Period = "Weekly"
	WorkDay    Period = "WorkDay"
	Monthly    Period = "Monthly"
	Quarterly  Period = "Quarterly"
	HalfYearly Period = "HalfYearly"
	Yearly     Period = "Yearly"
)

// RecurringSchedule produces occurrences over time. Amount is signed:
// negative is an outflow from TargetAccountID.
type RecurringSchedule struct {
	ID                  ScheduleID
	Name                string
	Amount              Amount
	StartDate           Date
	EndDate             *Date // inclusive when present
	Period              Period
	TargetAccountID     AccountID
	SourceAccountID     *AccountID
	IncludeInStatistics bool
	CategoryID          *CategoryID
	ScenarioID          *ScenarioID
	IsSimulated         bool
	Tags                []TagID
}

// RecurringIncome is shaped like RecurringSchedule minus a source
// account; always positive-directed into TargetAccountID.
type RecurringIncome struct {
	ID                  IncomeID
	Name                string
	Amount              Amount
	StartDate           Date
	EndDate             *Date
	Period              Period
	TargetAccountID     AccountID
	SourceName          *string
	IncludeInStatistics bool
	CategoryID          *CategoryID
	ScenarioID          *ScenarioID
	IsSimulated         bool
	Tags                []TagID
}

type InstanceStatus string

const (
	InstancePending InstanceStatus = "Pending"
	InstancePaid    InstanceStatus = "Paid"
	InstanceSkipped InstanceStatus = "Skipped"
)

// RecurringInstance is an override for the expanded occurrence at
// DueDate: when it exists, the Expander's occurrence at that date is
// suppressed and the instance substitutes (see LedgerMerge).
type RecurringInstance struct {
	ID                             InstanceID
	ScheduleID                     ScheduleID
	Status                         InstanceStatus
	DueDate                        Date
	ExpectedAmount                 Amount
	PaidDate                       *Date
	PaidAmount                     *Amount
	ReconciledImportedTransactionID *ImportID
	CategoryID                     *CategoryID
	Tags                           []TagID
}

// CanTransitionTo reports whether the state machine (§ State machine:
// RecurringInstance) allows moving from i.Status to next. There are no
// terminal states.
func (i RecurringInstance) CanTransitionTo(next InstanceStatus) bool {
	if i.Status == InstancePending && next == InstancePaid {
		return true // paid_date/paid_amount default handling is the caller's job
	}
	switch {
	case i.Status == InstancePending && next == InstanceSkipped:
		return true
	case i.Status == InstancePaid && next == InstancePending:
		return true
	case i.Status == InstancePaid && next == InstanceSkipped:
		return true
	case i.Status == InstanceSkipped && next == InstancePending:
		return true
	default:
		return false
	}
}

// OneOffTransaction is a single dated cash event.
type OneOffTransaction struct {
	ID                            OneOffID
	Name                          string
	Amount                        Amount
	Date                          Date
	TargetAccountID               AccountID
	SourceAccountID               *AccountID
	IncludeInStatistics           bool
	CategoryID                    *CategoryID
	ScenarioID                    *ScenarioID
	IsSimulated                   bool
	ReconciledRecurringScheduleID *ScheduleID
	LinkedImportID                *ImportID
}

// ManualAccountState is an asserted balance at end-of-day on Date.
// Multiple anchors per account are allowed; BalanceEngine picks the most
// recent one at or before the query date.
type ManualAccountState struct {
	ID        ManualStateID
	AccountID AccountID
	Date      Date
	Amount    Amount
}

// ReconciledKind is the sum type for what an ImportedTransaction links
// to - modeled as one field with a kind discriminant rather than four
// parallel nullable ids, per the design notes.
type ReconciledKind string

const (
	ReconciledOneOff            ReconciledKind = "OneOff"
	ReconciledRecurring         ReconciledKind = "Recurring"
	ReconciledRecurringIncome   ReconciledKind = "RecurringIncome"
	ReconciledRecurringInstance ReconciledKind = "RecurringInstance"
)

// ReconciliationLink is Option<(Kind, Id)> made concrete: both fields
// are either set together or the link is absent (represented as a nil
// *ReconciliationLink on ImportedTransaction).
type ReconciliationLink struct {
	Kind ReconciledKind
	ID   string
}

// ImportedTransaction is a bank row pulled in by an external importer
// (out of scope here); the engine only reads its reconciliation link.
type ImportedTransaction struct {
	ID          ImportID
	AccountID   AccountID
	Date        Date
	Description string
	Amount      Amount
	ImportHash  string
	Reconciled  *ReconciliationLink
}

// Scenario is a label space for is_simulated rows.
type Scenario struct {
	ID        ScenarioID
	Name      string
	CreatedAt Date
	IsActive  bool
}
