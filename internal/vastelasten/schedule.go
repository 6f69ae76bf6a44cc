package vastelasten

import (
	"sort"
	"time"

	"github.com/geldwijs/backend/internal/analyzer"
	"github.com/geldwijs/backend/internal/types"
	"github.com/shopspring/decimal"
)

// UpcomingExpense is one predicted occurrence of a fixed obligation.
type UpcomingExpense struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	MerchantKey string          `json:"merchantKey"`
	Fixed       bool            `json:"fixed"` // false for variable-amount obligations
}

// fixedVariabilityThreshold separates fixed-amount from variable-amount
// obligations in the timeline.
const fixedVariabilityThreshold = 0.15

// UpcomingExpenses walks every qualifying pattern forward by its
// cadence and returns the predicted occurrences within the next
// horizonMonths, soonest first.
func (p *Predictor) UpcomingExpenses(patterns []analyzer.Pattern, now time.Time, horizonMonths int) []UpcomingExpense {
	if horizonMonths < 1 {
		horizonMonths = 3
	}
	horizon := now.AddDate(0, horizonMonths, 0)

	var upcoming []UpcomingExpense
	for _, pattern := range patterns {
		if !pattern.IsFixed || pattern.Confidence < confidenceFloor {
			continue
		}

		date := pattern.PredictedDate
		for !date.After(horizon) {
			if !date.Before(now) {
				upcoming = append(upcoming, UpcomingExpense{
					Date:        date,
					Amount:      pattern.PredictedAmount,
					MerchantKey: pattern.MerchantKey,
					Fixed:       pattern.Variability <= fixedVariabilityThreshold,
				})
			}

			next := step(date, pattern)
			if !next.After(date) {
				break
			}
			date = next
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(upcoming[j].Date)
	})

	return upcoming
}

func step(date time.Time, pattern analyzer.Pattern) time.Time {
	switch pattern.Frequency {
	case analyzer.FrequencyMonthly:
		return date.AddDate(0, 1, 0)
	case analyzer.FrequencyQuarterly:
		return date.AddDate(0, 3, 0)
	case analyzer.FrequencyYearly:
		return date.AddDate(1, 0, 0)
	default:
		days := int(pattern.AverageInterval)
		if days < 1 {
			days = 30
		}
		return date.AddDate(0, 0, days)
	}
}

// PlannedTransfer is a suggested funding transfer towards the
// vaste-lasten account.
type PlannedTransfer struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose"`
	Recurring bool            `json:"recurring"`
}

// TransferSchedule suggests when to fund the vaste-lasten account: one
// recurring transfer three days before the next month starts covering
// the base requirement, plus one-off transfers seven days ahead of any
// non-monthly obligation that exceeds half the monthly requirement and
// falls due within the next two months.
func (p *Predictor) TransferSchedule(patterns []analyzer.Pattern, forecast Forecast, now time.Time) []PlannedTransfer {
	var transfers []PlannedTransfer

	if forecast.BaseMonthly.IsPositive() {
		nextMonth := types.MonthOf(now).AddDate(0, 1)
		transfers = append(transfers, PlannedTransfer{
			Date:      nextMonth.FirstDay().AddDate(0, 0, -3),
			Amount:    forecast.BaseMonthly,
			Purpose:   "Monthly vaste lasten funding",
			Recurring: true,
		})
	}

	half := forecast.BaseMonthly.Div(decimal.NewFromInt(2))
	windowEnd := now.AddDate(0, 2, 0)

	for _, pattern := range patterns {
		if !pattern.IsFixed || pattern.Confidence < confidenceFloor {
			continue
		}
		if pattern.Frequency == analyzer.FrequencyMonthly || pattern.Frequency == analyzer.FrequencyIrregular {
			continue
		}
		if !pattern.PredictedAmount.GreaterThan(half) {
			continue
		}
		if pattern.PredictedDate.Before(now) || pattern.PredictedDate.After(windowEnd) {
			continue
		}

		transfers = append(transfers, PlannedTransfer{
			Date:    pattern.PredictedDate.AddDate(0, 0, -7),
			Amount:  pattern.PredictedAmount,
			Purpose: "Upcoming " + pattern.MerchantKey + " payment",
		})
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].Date.Before(transfers[j].Date)
	})

	return transfers
}
