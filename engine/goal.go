package engine

import "context"

// GoalReachedDate scans a balance series, sorted ascending from today,
// for the first date whose balance reaches target; the scan halts on
// first success (§4.6). Returns (nil, nil) if the target is never
// reached within the series.
func GoalReachedDate(ctx context.Context, series []BalancePoint, target Amount) (*Date, error) {
	for i, p := range series {
		if i%366 == 0 {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
		}
		if p.Balance.GreaterThanOrEqual(target) {
			d := p.Date
			return &d, nil
		}
	}
	return nil, nil
}
