// Package analyzer detects recurring fixed expenses in transaction history.
//
// Transactions are grouped by a merchant signature, every group is
// classified by payment cadence and amount stability, and groups that
// look like recurring obligations are predicted forward.
package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/money"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Frequency is the payment cadence of a pattern.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

// Pattern is a detected recurring expense. Patterns are derived data,
// recomputed for every request and never persisted.
type Pattern struct {
	MerchantKey     string
	AverageAmount   decimal.Decimal
	Frequency       Frequency
	Variability     float64 // coefficient of variation, clamped to [0,1]
	Confidence      float64
	PredictedAmount decimal.Decimal
	PredictedDate   time.Time
	Occurrences     int
	LastDate        time.Time
	AverageInterval float64 // days
	IsFixed         bool
	Score           int
}

const (
	// fixedScoreThreshold is the weighted vote a group needs to be
	// classified as a fixed expense.
	fixedScoreThreshold = 5

	// minObservations is the minimum number of transactions a group
	// needs before it can be classified as fixed.
	minObservations = 3
)

// Analyzer detects fixed-expense patterns in a transaction history.
type Analyzer struct {
	lookbackMonths int
}

// New returns an Analyzer with the given lookback window in months.
// Values below 1 fall back to the default of 12 months.
func New(lookbackMonths int) *Analyzer {
	if lookbackMonths < 1 {
		lookbackMonths = 12
	}

	return &Analyzer{lookbackMonths: lookbackMonths}
}

// Analyze groups the expense transactions within the lookback window by
// merchant signature and returns one pattern per group, fixed expenses
// first, then by descending average amount.
func (a *Analyzer) Analyze(transactions []models.Transaction, now time.Time) []Pattern {
	cutoff := now.AddDate(0, -a.lookbackMonths, 0)

	groups := make(map[string][]models.Transaction)
	for _, t := range transactions {
		if !t.IsExpense() || t.Date.Before(cutoff) {
			continue
		}

		key := MerchantKey(t)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], t)
	}

	patterns := make([]Pattern, 0, len(groups))
	for key, group := range groups {
		patterns = append(patterns, a.analyzeGroup(key, group))
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].IsFixed != patterns[j].IsFixed {
			return patterns[i].IsFixed
		}
		return patterns[i].AverageAmount.GreaterThan(patterns[j].AverageAmount)
	})

	return patterns
}

// FixedPatterns returns only the patterns classified as fixed expenses.
func FixedPatterns(patterns []Pattern) []Pattern {
	fixed := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.IsFixed {
			fixed = append(fixed, p)
		}
	}
	return fixed
}

func (a *Analyzer) analyzeGroup(key string, group []models.Transaction) Pattern {
	sort.Slice(group, func(i, j int) bool {
		return group[i].Date.Before(group[j].Date)
	})

	amounts := make([]float64, len(group))
	total := decimal.Zero
	for i, t := range group {
		abs := t.Amount.Abs()
		amounts[i], _ = abs.Float64()
		total = total.Add(abs)
	}

	average := money.Cents(total.Div(decimal.NewFromInt(int64(len(group)))))

	mean := stat.Mean(amounts, nil)
	variability := 0.0
	if mean > 0 && len(amounts) > 1 {
		variability = money.Clamp01(stat.StdDev(amounts, nil) / mean)
	}

	frequency, avgInterval := classifyFrequency(group)

	p := Pattern{
		MerchantKey:     key,
		AverageAmount:   average,
		Frequency:       frequency,
		Variability:     variability,
		Occurrences:     len(group),
		LastDate:        group[len(group)-1].Date,
		AverageInterval: avgInterval,
	}

	p.Score = fixedScore(p, group)
	p.IsFixed = p.Score >= fixedScoreThreshold && p.Occurrences >= minObservations

	p.PredictedAmount = average
	p.PredictedDate = nextDate(p)
	p.Confidence = confidence(p)

	return p
}

// classifyFrequency derives the cadence from the day intervals between
// consecutive transactions.
func classifyFrequency(group []models.Transaction) (Frequency, float64) {
	if len(group) < 2 {
		return FrequencyIrregular, 0
	}

	intervals := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		days := group[i].Date.Sub(group[i-1].Date).Hours() / 24
		intervals = append(intervals, days)
	}

	avg := stat.Mean(intervals, nil)
	if avg <= 0 {
		return FrequencyIrregular, 0
	}

	variation := 0.0
	if len(intervals) > 1 {
		variation = stat.StdDev(intervals, nil) / avg
	}

	switch {
	case avg >= 27 && avg <= 35 && variation < 0.30:
		return FrequencyMonthly, avg
	case avg >= 80 && avg <= 100:
		return FrequencyQuarterly, avg
	case avg >= 350 && avg <= 380:
		return FrequencyYearly, avg
	default:
		return FrequencyIrregular, avg
	}
}

// fixedScore is a weighted vote on how much a group looks like a
// recurring fixed obligation.
func fixedScore(p Pattern, group []models.Transaction) int {
	score := 0

	if p.Variability <= 0.15 {
		score += 3
	}

	if p.Frequency != FrequencyIrregular {
		score += 2
	}

	if p.Occurrences >= minObservations {
		score += 2
	}

	for _, t := range group {
		if ContainsFixedExpenseKeyword(t.Merchant) || ContainsFixedExpenseKeyword(t.Description) {
			score += 2
			break
		}
	}

	if p.AverageAmount.GreaterThanOrEqual(decimal.NewFromInt(10)) {
		score++
	}

	return score
}

// nextDate predicts the next occurrence from the last observed date and
// the cadence. Irregular patterns step forward by their average interval.
func nextDate(p Pattern) time.Time {
	switch p.Frequency {
	case FrequencyMonthly:
		return p.LastDate.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return p.LastDate.AddDate(0, 3, 0)
	case FrequencyYearly:
		return p.LastDate.AddDate(1, 0, 0)
	default:
		days := int(p.AverageInterval)
		if days < 1 {
			days = 30
		}
		return p.LastDate.AddDate(0, 0, days)
	}
}

// confidence averages data sufficiency and amount consistency.
func confidence(p Pattern) float64 {
	sufficiency := float64(p.Occurrences) / 6
	if sufficiency > 1 {
		sufficiency = 1
	}

	consistency := 1 - 2*p.Variability
	if consistency < 0 {
		consistency = 0
	}

	return money.Clamp01((sufficiency + consistency) / 2)
}

// genericTokens are description tokens that carry no merchant information.
var genericTokens = map[string]struct{}{
	"payment":     {},
	"betaling":    {},
	"debit":       {},
	"credit":      {},
	"transfer":    {},
	"overboeking": {},
	"incasso":     {},
	"automatisch": {},
	"periodieke":  {},
}

// MerchantKey derives the grouping signature for a transaction. The
// merchant field wins when it is meaningful, otherwise the first
// meaningful token of the description is used.
func MerchantKey(t models.Transaction) string {
	merchant := strings.ToLower(strings.TrimSpace(t.Merchant))
	if len(merchant) > 3 {
		return merchant
	}

	description := strings.ToLower(strings.TrimSpace(t.Description))
	for _, token := range strings.Fields(description) {
		if len(token) <= 3 {
			continue
		}
		if _, generic := genericTokens[token]; generic {
			continue
		}
		return token
	}

	// Truncate on a rune boundary, descriptions can carry diacritics.
	if runes := []rune(description); len(runes) > 20 {
		return string(runes[:20])
	}
	return description
}
