package engine

import (
	"sort"
	"time"

	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/money"
	"github.com/geldwijs/backend/internal/vastelasten"
	"github.com/shopspring/decimal"
)

var (
	pocketMoneyRate = decimal.NewFromFloat(0.10)
	bufferCapRate   = decimal.NewFromFloat(0.10)
)

// computeAllocation splits the monthly surplus over pocket money, the
// buffer and the goals. Goal shares are proportional to their deficit
// and sum exactly to the distributed amount.
func computeAllocation(transactions []models.Transaction, goals []models.Goal, forecast vastelasten.Forecast, now time.Time) Allocation {
	income := averageMonthlyIncome(transactions, now, 3)

	allocation := Allocation{
		MonthlyIncome:     income,
		EssentialExpenses: forecast.Total,
	}

	if !income.IsPositive() {
		return allocation
	}

	allocation.PocketMoney = money.Cents(income.Mul(pocketMoneyRate))

	surplus := income.Sub(forecast.Total).Sub(allocation.PocketMoney)
	if !surplus.IsPositive() {
		return allocation
	}
	allocation.Surplus = surplus

	// Buffer first, capped at 10% of monthly income.
	bufferCap := money.Cents(income.Mul(bufferCapRate))
	allocation.BufferAllocation = money.Min(money.Cents(surplus.Div(decimal.NewFromInt(2))), bufferCap)

	remaining := surplus.Sub(allocation.BufferAllocation)
	allocation.GoalAllocations = goalAllocations(goals, remaining)

	return allocation
}

// goalAllocations distributes the remaining surplus over incomplete
// goals, prioritized by rank then target date, proportional to the
// deficit of each goal.
func goalAllocations(goals []models.Goal, remaining decimal.Decimal) []GoalAllocation {
	if !remaining.IsPositive() {
		return nil
	}

	eligible := make([]models.Goal, 0, len(goals))
	totalDeficit := decimal.Zero
	for _, g := range goals {
		if g.Completed || !g.Remaining().IsPositive() {
			continue
		}
		eligible = append(eligible, g)
		totalDeficit = totalDeficit.Add(g.Remaining())
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		switch {
		case eligible[i].TargetDate == nil:
			return false
		case eligible[j].TargetDate == nil:
			return true
		default:
			return eligible[i].TargetDate.Before(*eligible[j].TargetDate)
		}
	})

	// Never allocate more than the goals can absorb.
	toDistribute := money.Min(remaining, totalDeficit)

	weights := make([]decimal.Decimal, len(eligible))
	for i, g := range eligible {
		weights[i] = g.Remaining()
	}

	parts, err := money.DistributeWeighted(toDistribute, weights)
	if err != nil {
		return nil
	}

	allocations := make([]GoalAllocation, 0, len(eligible))
	for i, g := range eligible {
		if !parts[i].IsPositive() {
			continue
		}
		allocations = append(allocations, GoalAllocation{
			GoalID: g.ID,
			Name:   g.Name,
			Amount: parts[i],
		})
	}

	return allocations
}

// averageMonthlyIncome is the mean of income bookings over the
// trailing months.
func averageMonthlyIncome(transactions []models.Transaction, now time.Time, months int) decimal.Decimal {
	if months < 1 {
		months = 3
	}
	cutoff := now.AddDate(0, -months, 0)

	total := decimal.Zero
	for _, t := range transactions {
		if !t.IsIncome || !t.Amount.IsPositive() || t.Date.Before(cutoff) {
			continue
		}
		total = total.Add(t.Amount)
	}

	return money.Cents(total.Div(decimal.NewFromInt(int64(months))))
}
