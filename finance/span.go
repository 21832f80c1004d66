package finance

import (
	"time"

	"github.com/warp/resource-engine/engine"
)

// farPast and farFuture bound an "all time" window for loads that scan
// every imported transaction regardless of date, such as locating one by
// id before reconciling it.
var (
	farPast   = engine.NewDate(1, time.January, 1)
	farFuture = engine.NewDate(9999, time.December, 31)
)

// widenToEarliestAnchor implements the widening engine.Balances documents
// as the caller's responsibility (engine/balance.go): if any account's
// most recent anchor on or before w.Start predates w.Start, the merge
// window must start there instead, so the flows between the anchor and
// w.Start are loaded and folded rather than silently dropped.
func widenToEarliestAnchor(w engine.Window, anchors []engine.ManualAccountState) engine.Window {
	earliest := w.Start
	for _, a := range anchors {
		if a.Date.Before(earliest) {
			earliest = a.Date
		}
	}
	return engine.Window{Start: earliest, End: w.End}
}
