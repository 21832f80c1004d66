package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point monetary value. All arithmetic goes through
// shopspring/decimal; the engine never converts to float64 except at
// explicit, caller-requested boundaries (there are none in this package).
type Amount struct {
	Value decimal.Decimal
}

// Zero is the additive identity, useful as a fold seed.
var Zero = Amount{Value: decimal.Zero}

// NewAmount builds an Amount from a float64. Callers ingesting user input
// should prefer ParseAmount, which fails loudly instead of losing
// precision silently.
func NewAmount(f float64) Amount {
	return Amount{Value: decimal.NewFromFloat(f)}
}

// ParseAmount parses a decimal string (e.g. "-1234.5678"). Ingress from
// strings that fails to parse is an Invariant failure per the error
// handling design - callers should wrap this in NewInvariantError.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount         { return Amount{Value: a.Value.Neg()} }

func (a Amount) IsZero() bool     { return a.Value.IsZero() }
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool { return a.Value.IsPositive() }

func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Value.Cmp(b.Value) >= 0 }
func (a Amount) LessThan(b Amount) bool           { return a.Value.Cmp(b.Value) < 0 }
func (a Amount) Equal(b Amount) bool              { return a.Value.Equal(b.Value) }

func (a Amount) String() string { return a.Value.StringFixed(4) }

// maxBalanceDigits bounds the coefficient size folding is allowed to grow
// to. shopspring/decimal is arbitrary-precision and never traps on its
// own, so without a bound a runaway fold (or corrupt input) would grow
// balances without limit instead of surfacing the NumericOverflow kind
// §7 requires.
const maxBalanceDigits = 28

// overflows reports whether a's coefficient has grown past the sane
// bound for a folded balance.
func (a Amount) overflows() bool { return a.Value.NumDigits() > maxBalanceDigits }
