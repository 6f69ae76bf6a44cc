// Package vastelasten predicts the monthly funding requirement for
// recurring fixed obligations (vaste lasten) from detected patterns.
package vastelasten

import (
	"time"

	"github.com/geldwijs/backend/internal/analyzer"
	"github.com/geldwijs/backend/internal/money"
	"github.com/geldwijs/backend/internal/types"
	"github.com/shopspring/decimal"
)

// confidenceFloor is the minimum pattern confidence for a pattern to
// count towards the funding requirement.
const confidenceFloor = 0.7

// bufferMultiplier sizes the recommended vaste-lasten buffer relative
// to the monthly requirement.
var bufferMultiplier = decimal.NewFromFloat(2.5)

// seasonalFactors scales the monthly requirement per calendar month.
// December and January carry the yearly peaks (annual premiums, local
// taxes), summer months run light.
var seasonalFactors = map[time.Month]float64{
	time.January:   1.20,
	time.February:  0.95,
	time.March:     0.90,
	time.April:     0.95,
	time.May:       0.90,
	time.June:      0.85,
	time.July:      0.80,
	time.August:    0.85,
	time.September: 1.00,
	time.October:   0.95,
	time.November:  1.05,
	time.December:  1.25,
}

// Forecast is the predicted funding requirement for one month.
type Forecast struct {
	Month              types.Month     `json:"month"`
	BaseMonthly        decimal.Decimal `json:"baseMonthly"`
	SeasonalFactor     float64         `json:"seasonalFactor"`
	SeasonalAdjustment decimal.Decimal `json:"seasonalAdjustment"`
	Total              decimal.Decimal `json:"total"`
	RecommendedBuffer  decimal.Decimal `json:"recommendedBuffer"`
}

// Predictor aggregates fixed-expense patterns into funding requirements.
type Predictor struct{}

func New() *Predictor {
	return &Predictor{}
}

// MonthlyRequirement computes the seasonally adjusted funding
// requirement for the target month. Only patterns with a confidence of
// at least 0.7 contribute; quarterly and yearly obligations are spread
// over their period.
func (p *Predictor) MonthlyRequirement(patterns []analyzer.Pattern, target types.Month) Forecast {
	base := decimal.Zero

	for _, pattern := range patterns {
		if !pattern.IsFixed || pattern.Confidence < confidenceFloor {
			continue
		}

		switch pattern.Frequency {
		case analyzer.FrequencyMonthly:
			base = base.Add(pattern.PredictedAmount)
		case analyzer.FrequencyQuarterly:
			base = base.Add(pattern.PredictedAmount.Div(decimal.NewFromInt(3)))
		case analyzer.FrequencyYearly:
			base = base.Add(pattern.PredictedAmount.Div(decimal.NewFromInt(12)))
		}
	}

	base = money.Cents(base)

	factor := seasonalFactors[target.Month()]
	adjustment := money.Cents(base.Mul(decimal.NewFromFloat(factor - 1)))
	total := base.Add(adjustment)

	return Forecast{
		Month:              target,
		BaseMonthly:        base,
		SeasonalFactor:     factor,
		SeasonalAdjustment: adjustment,
		Total:              total,
		RecommendedBuffer:  money.Cents(total.Mul(bufferMultiplier)),
	}
}
