// Package money implements exact decimal arithmetic helpers.
//
// All monetary math in Geldwijs goes through decimal.Decimal. Splitting
// a total over multiple parts is exact: the parts always sum to the
// total, with the rounding residue applied to the last part.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveTotal = errors.New("the total to distribute must be positive")
	ErrNoParts          = errors.New("there must be at least one part to distribute to")
)

// Cents rounds an amount to two decimal places.
func Cents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Clamp01 clamps a float to the interval [0,1]. It is used for
// confidence and variability scores.
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Distribute splits a total into n equal parts rounded to cents.
// The rounding residue is applied to the last part so that the
// parts sum to the total exactly.
func Distribute(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}
	if n < 1 {
		return nil, ErrNoParts
	}

	part := Cents(total.Div(decimal.NewFromInt(int64(n))))

	parts := make([]decimal.Decimal, n)
	assigned := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = part
		assigned = assigned.Add(part)
	}
	parts[n-1] = total.Sub(assigned)

	return parts, nil
}

// DistributeWeighted splits a total proportionally to the weights,
// rounded to cents. Parts sum to the total exactly, the residue goes to
// the last part with a non-zero weight. Weights must not be negative
// and at least one weight must be positive.
func DistributeWeighted(total decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}
	if len(weights) == 0 {
		return nil, ErrNoParts
	}

	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.IsNegative() {
			return nil, errors.New("weights must not be negative")
		}
		if w.IsPositive() {
			last = i
		}
		sum = sum.Add(w)
	}
	if last == -1 {
		return nil, errors.New("at least one weight must be positive")
	}

	parts := make([]decimal.Decimal, len(weights))
	assigned := decimal.Zero
	for i, w := range weights {
		if i == last {
			continue
		}
		parts[i] = Cents(total.Mul(w).Div(sum))
		assigned = assigned.Add(parts[i])
	}
	parts[last] = total.Sub(assigned)

	return parts, nil
}
