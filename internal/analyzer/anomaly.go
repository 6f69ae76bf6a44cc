package analyzer

import (
	"time"

	"github.com/geldwijs/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AnomalyType classifies what is unusual about a transaction.
type AnomalyType string

const (
	AnomalyAmountSpike AnomalyType = "amount_spike"
	AnomalyAmountDrop  AnomalyType = "amount_drop"
	AnomalyNewExpense  AnomalyType = "new_expense"
)

// Severity grades how far an anomaly deviates from the expectation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is a recent transaction that deviates from a known pattern,
// or a new keyworded expense without a pattern.
type Anomaly struct {
	Type        AnomalyType
	Severity    Severity
	MerchantKey string
	Date        time.Time
	Expected    decimal.Decimal
	Actual      decimal.Decimal
	Deviation   float64
}

// anomalyWindowMonths is how far back anomaly detection looks.
const anomalyWindowMonths = 3

// newExpenseFloor is the minimum amount for an unmatched keyworded
// transaction to be flagged as a new fixed expense.
var newExpenseFloor = decimal.NewFromInt(50)

// DetectAnomalies compares recent expense transactions against the
// detected patterns. Deviations of 20% or less are considered noise.
func (a *Analyzer) DetectAnomalies(transactions []models.Transaction, patterns []Pattern, now time.Time) []Anomaly {
	cutoff := now.AddDate(0, -anomalyWindowMonths, 0)

	byKey := make(map[string]Pattern, len(patterns))
	for _, p := range patterns {
		byKey[p.MerchantKey] = p
	}

	var anomalies []Anomaly
	for _, t := range transactions {
		if !t.IsExpense() || t.Date.Before(cutoff) {
			continue
		}

		key := MerchantKey(t)
		actual := t.Amount.Abs()

		pattern, known := byKey[key]
		if !known {
			if actual.GreaterThanOrEqual(newExpenseFloor) &&
				(ContainsFixedExpenseKeyword(t.Merchant) || ContainsFixedExpenseKeyword(t.Description)) {
				anomalies = append(anomalies, Anomaly{
					Type:        AnomalyNewExpense,
					Severity:    SeverityMedium,
					MerchantKey: key,
					Date:        t.Date,
					Actual:      actual,
				})
			}
			continue
		}

		expected := pattern.AverageAmount
		if !expected.IsPositive() {
			continue
		}

		deviation, _ := actual.Sub(expected).Abs().Div(expected).Float64()
		if deviation <= 0.20 {
			continue
		}

		anomalyType := AnomalyAmountSpike
		if actual.LessThan(expected) {
			anomalyType = AnomalyAmountDrop
		}

		anomalies = append(anomalies, Anomaly{
			Type:        anomalyType,
			Severity:    severityFor(deviation),
			MerchantKey: key,
			Date:        t.Date,
			Expected:    expected,
			Actual:      actual,
			Deviation:   deviation,
		})
	}

	return anomalies
}

func severityFor(deviation float64) Severity {
	switch {
	case deviation > 0.50:
		return SeverityHigh
	case deviation > 0.30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
