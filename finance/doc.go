/*
Package finance is the boundary-aware wrapper around package engine: it
loads rows through a store.Store, hands them to engine's pure functions,
and persists whatever mutation comes back. Engine never sees a Store;
finance never re-derives a balance or re-implements a recurrence rule -
every computation is delegated straight through.

Key insight: the engine answers "what does the data say", finance
answers "go get the data, ask the engine, write back what changed". The
split mirrors a ProjectionEngine wrapping a Ledger: the pure calculation
stays pure, and the only code that talks to a database lives in one
well-named layer.

SEE ALSO:
  - engine/doc.go: the pure computation library this package wraps.
  - store/store.go: the persistence interface this package loads from
    and writes through.
*/
package finance
