/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/resource-engine/engine"
)

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CurrencyCode string  `json:"currency_code"`
	Kind         string  `json:"kind"`
	TargetAmount *string `json:"target_amount,omitempty"`
}

// BalancePointDTO represents a single day's balance in a projection series.
type BalancePointDTO struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}

// StatsDTO represents a statistics summary over a sub-window.
type StatsDTO struct {
	Min              string `json:"min"`
	Max              string `json:"max"`
	AverageIncome    string `json:"average_income"`
	AverageExpense   string `json:"average_expense"`
	UpcomingExpenses string `json:"upcoming_expenses"`
	EndOfPeriod      string `json:"end_of_period"`
}

// GoalDTO reports the first date a target balance is reached, if any.
type GoalDTO struct {
	AccountID string  `json:"account_id"`
	Target    string  `json:"target"`
	ReachedOn *string `json:"reached_on,omitempty"`
}

// ReconcileRequest is the request body to link an import to a target row.
type ReconcileRequest struct {
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
}

// MarkPaidRequest is the request body to mark a recurring instance paid.
type MarkPaidRequest struct {
	PaidDate   string `json:"paid_date"`
	PaidAmount string `json:"paid_amount"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAccountDTO(a engine.Account) AccountDTO {
	dto := AccountDTO{
		ID:           string(a.ID),
		Name:         a.Name,
		CurrencyCode: a.CurrencyCode,
		Kind:         string(a.Kind),
	}
	if a.TargetAmount != nil {
		s := a.TargetAmount.String()
		dto.TargetAmount = &s
	}
	return dto
}

func toBalancePointDTOs(points []engine.BalancePoint) []BalancePointDTO {
	out := make([]BalancePointDTO, len(points))
	for i, p := range points {
		out[i] = BalancePointDTO{Date: p.Date.Time().Format("2006-01-02"), Balance: p.Balance.String()}
	}
	return out
}

func toStatsDTO(s engine.Stats) StatsDTO {
	return StatsDTO{
		Min:              s.Min.String(),
		Max:              s.Max.String(),
		AverageIncome:    s.AverageIncome.String(),
		AverageExpense:   s.AverageExpense.String(),
		UpcomingExpenses: s.UpcomingExpenses.String(),
		EndOfPeriod:      s.EndOfPeriod.String(),
	}
}
