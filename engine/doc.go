/*
Package engine implements the temporal projection engine: a library of
pure, CPU-bound functions that turn a personal-finance ledger (accounts,
one-off transactions, recurring schedules and incomes, recurring-instance
overrides, manual balance anchors, and imported bank rows) into balances,
statistics, goal projections, and reconciliation links.

SCOPE:
  This package owns recurrence expansion, ledger merging, balance folding,
  statistics, goal projection, scenario filtering, and reconciliation
  linking. It does not own persistence, HTTP, or CLI parsing - callers
  (see package store and package api) supply inputs by value and consume
  outputs by value.

CONCURRENCY:
  Every exported entry point is safe to call concurrently as long as
  callers do not mutate the slices they pass in while a call is in
  flight. The engine never retains or mutates its inputs. Long-running
  calls accept a context.Context and check it cooperatively; see cancel.go.

DETERMINISM:
  ExpandSchedule, ExpandIncome, Merge, Balances, ComputeStats, and
  GoalReachedDate are pure functions of their arguments - same inputs,
  same outputs, including decimal representation and ordering. They take
  "today" as an argument; the only wall-clock read in this package is
  Today(), which callers use to build that argument.

SEE ALSO:
  - finance/: domain-facing wrapper that loads engine inputs from a store
    and persists Reconciler and ScenarioOverlay mutations.
  - store/: boundary collaborators (sqlite, memory) implementing the
    load_* functions this package's callers are expected to supply.
*/
package engine
