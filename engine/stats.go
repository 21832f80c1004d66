package engine

import "github.com/shopspring/decimal"

// Stats is the output of ComputeStats (§4.5).
type Stats struct {
	Min              Amount
	Max              Amount
	AverageIncome    Amount
	AverageExpense   Amount
	UpcomingExpenses Amount
	EndOfPeriod      Amount
}

// ComputeStats derives min/max/avg-income/avg-expense/upcoming-expenses/
// end-of-period from a balance series restricted to subWindow. series is
// expected to be a single account's output of Balances, which carries
// one point per calendar day with no gaps.
func ComputeStats(series []BalancePoint, subWindow Window, today Date) Stats {
	var sub []BalancePoint
	for _, p := range series {
		if subWindow.Contains(p.Date) {
			sub = append(sub, p)
		}
	}
	if len(sub) == 0 {
		return Stats{}
	}

	min := sub[0].Balance
	max := sub[0].Balance
	for _, p := range sub[1:] {
		if p.Balance.LessThan(min) {
			min = p.Balance
		}
		if max.LessThan(p.Balance) {
			max = p.Balance
		}
	}

	incomeSum, expenseSum, upcoming := Zero, Zero, Zero
	incomeCount, expenseCount := 0, 0
	for i := 1; i < len(sub); i++ {
		delta := sub[i].Balance.Sub(sub[i-1].Balance)
		switch {
		case delta.IsPositive():
			incomeSum = incomeSum.Add(delta)
			incomeCount++
		case delta.IsNegative():
			expenseSum = expenseSum.Add(delta.Neg())
			expenseCount++
			if sub[i].Date.After(today) {
				upcoming = upcoming.Add(delta.Neg())
			}
		}
	}

	avgIncome := Zero
	if incomeCount > 0 {
		avgIncome = divideByInt(incomeSum, incomeCount)
	}
	avgExpense := Zero
	if expenseCount > 0 {
		avgExpense = divideByInt(expenseSum, expenseCount)
	}

	return Stats{
		Min:              min,
		Max:              max,
		AverageIncome:    avgIncome,
		AverageExpense:   avgExpense,
		UpcomingExpenses: upcoming,
		EndOfPeriod:      sub[len(sub)-1].Balance,
	}
}

// divideByInt divides without ever falling back to float64; eight
// fractional digits of rounding margin comfortably exceeds the >=4 the
// data model requires (§3).
func divideByInt(a Amount, n int) Amount {
	return Amount{Value: a.Value.DivRound(decimal.NewFromInt(int64(n)), 8)}
}
