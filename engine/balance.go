package engine

import (
	"context"
	"time"
)

// BalancePoint is one day's folded balance.
type BalancePoint struct {
	Date    Date
	Balance Amount
}

// Balances folds a merged occurrence stream into a per-account per-day
// balance series over w (§4.4). occs should cover every day from the
// earliest anchor relevant to any account through w.End - the caller
// (package finance) is responsible for widening the merge window to
// that span when an account's anchor predates w.Start; Balances itself
// only walks the days it is given.
func Balances(ctx context.Context, accounts []Account, occs []Occurrence, anchors []ManualAccountState, w Window) (map[AccountID][]BalancePoint, error) {
	occsByAccount := groupOccurrencesByAccountDate(occs)
	anchorsByAccount := groupAnchorsByAccount(anchors)

	result := make(map[AccountID][]BalancePoint, len(accounts))
	for _, a := range accounts {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		series, err := balanceOneAccount(ctx, a.ID, occsByAccount[a.ID], anchorsByAccount[a.ID], w)
		if err != nil {
			return nil, err
		}
		result[a.ID] = series
	}
	return result, nil
}

func balanceOneAccount(ctx context.Context, accountID AccountID, occsByDate map[Date][]Occurrence, anchors []ManualAccountState, w Window) ([]BalancePoint, error) {
	anchorByDate := make(map[Date]Amount, len(anchors))
	var chosen *ManualAccountState
	for i := range anchors {
		a := anchors[i]
		anchorByDate[a.Date] = a.Amount
		if a.Date.AfterOrEqual(w.Start) {
			continue
		}
		if chosen == nil || a.Date.After(chosen.Date) {
			c := a
			chosen = &c
		}
	}

	var seedDate Date
	var seedBalance Amount
	if chosen != nil {
		seedDate = chosen.Date
		seedBalance = chosen.Amount
	} else {
		seedDate = w.Start.AddDays(-1)
		seedBalance = Zero
	}

	var series []BalancePoint
	balance := seedBalance
	d := seedDate
	first := true
	for !d.After(w.End) {
		if !first {
			if d.Month() == time.January && d.Day() == 1 {
				if err := checkCancelled(ctx); err != nil {
					return nil, err
				}
			}
			if reset, ok := anchorByDate[d]; ok {
				balance = reset // anchor wins over same-day flows (§4.4, S3)
			} else {
				for _, o := range occsByDate[d] {
					balance = balance.Add(o.Amount)
				}
			}
			if balance.overflows() {
				return nil, &OverflowError{AccountID: accountID, Date: d}
			}
		}
		if d.AfterOrEqual(w.Start) {
			series = append(series, BalancePoint{Date: d, Balance: balance})
		}
		first = false
		d = d.AddDays(1)
	}
	return series, nil
}

func groupOccurrencesByAccountDate(occs []Occurrence) map[AccountID]map[Date][]Occurrence {
	out := make(map[AccountID]map[Date][]Occurrence)
	for _, o := range occs {
		byDate := out[o.AccountID]
		if byDate == nil {
			byDate = make(map[Date][]Occurrence)
			out[o.AccountID] = byDate
		}
		byDate[o.Date] = append(byDate[o.Date], o)
	}
	return out
}

func groupAnchorsByAccount(anchors []ManualAccountState) map[AccountID][]ManualAccountState {
	out := make(map[AccountID][]ManualAccountState)
	for _, a := range anchors {
		out[a.AccountID] = append(out[a.AccountID], a)
	}
	return out
}
