package engine

// Origin names which input row produced an Occurrence. LedgerMerge uses
// originRank to break same-day ties (§4.3).
type Origin string

const (
	OriginOneOff         Origin = "OneOff"
	OriginScheduleTarget Origin = "ScheduleTarget"
	OriginScheduleSource Origin = "ScheduleSource"
	OriginInstanceTarget Origin = "InstanceTarget"
	OriginInstanceSource Origin = "InstanceSource"
	OriginIncome         Origin = "Income"
)

// originRank implements the stable-origin-order from §4.3:
// OneOff < InstanceTarget < ScheduleTarget < Income < InstanceSource < ScheduleSource.
func originRank(o Origin) int {
	switch o {
	case OriginOneOff:
		return 0
	case OriginInstanceTarget:
		return 1
	case OriginScheduleTarget:
		return 2
	case OriginIncome:
		return 3
	case OriginInstanceSource:
		return 4
	case OriginScheduleSource:
		return 5
	default:
		return 6
	}
}

// Occurrence is a materialized dated cash event for one account (§3,
// derived, not persisted). Produced by the Expander and by LedgerMerge's
// direct emission of one-offs and instances; consumed by BalanceEngine.
type Occurrence struct {
	Date                Date
	Amount              Amount
	AccountID           AccountID
	Tags                []TagID
	PaidOn              *Date
	Origin              Origin
	IncludeInStatistics bool

	// SourceID names the originating row (schedule/income/instance/one-off
	// id) for traceability; harmless to callers and useful for debugging
	// merges.
	SourceID string

	// seq is the insertion order used as the final tie-break once
	// (account, date, origin) are equal, per "ties beyond origin break
	// by insertion order" (§4.3). Unexported: callers never construct it
	// directly, only LedgerMerge assigns it.
	seq int
}
