// Package optimizer produces scored, typed transfer candidates.
//
// Every candidate carries an impact estimate and a confidence; ranking
// combines both with a fixed per-type weight so obligation funding
// always outranks opportunistic rebalancing at equal urgency.
package optimizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geldwijs/backend/internal/analyzer"
	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/money"
	"github.com/geldwijs/backend/internal/vastelasten"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CandidateType is the generation strategy a candidate came from.
type CandidateType string

const (
	TypeVasteLasten     CandidateType = "vaste_lasten"
	TypeEmergencyBuffer CandidateType = "emergency_buffer"
	TypeGoalFunding     CandidateType = "goal_funding"
	TypeOptimization    CandidateType = "optimization"
)

// typeWeights bias the ranking towards obligation funding.
var typeWeights = map[CandidateType]float64{
	TypeVasteLasten:     10,
	TypeEmergencyBuffer: 8,
	TypeGoalFunding:     6,
	TypeOptimization:    4,
}

// Impact estimates what acting on a candidate does for the user.
// All three components are fractions in [0,1].
type Impact struct {
	SavingsRate     float64 `json:"savingsRate"`
	RiskReduction   float64 `json:"riskReduction"`
	OpportunityCost float64 `json:"opportunityCost"`
}

// Candidate is a potential transfer recommendation before destination
// resolution and validation.
type Candidate struct {
	Type          CandidateType
	Allocation    models.AllocationType
	GoalID        *uuid.UUID
	FromAccountID uuid.UUID
	// DestinationHint is set when the generator already knows the
	// target account; the resolver is only consulted when it is nil.
	DestinationHint *uuid.UUID
	Amount          decimal.Decimal
	Purpose         string
	Priority        models.Priority
	Urgency         models.Urgency
	Confidence      float64
	Impact          Impact
	Score           float64
}

// Input is the full user context the optimizer works on.
type Input struct {
	Accounts     []models.Account
	Goals        []models.Goal
	Preferences  []models.TransferPreference
	Transactions []models.Transaction
	Patterns     []analyzer.Pattern
	Forecast     vastelasten.Forecast
	Now          time.Time
}

// Optimizer generates and ranks transfer candidates.
type Optimizer struct {
	in Input
}

func New(in Input) *Optimizer {
	return &Optimizer{in: in}
}

// ErrNoSourceAccount is returned when the user has neither a checking
// nor an income account to fund transfers from.
var ErrNoSourceAccount = errors.New("no checking or income account to fund transfers from")

// Generate runs all candidate generators and returns the ranked
// result. An empty result with a nil error is a legitimate outcome: a
// source account exists but no generator found anything to do.
func (o *Optimizer) Generate() ([]Candidate, error) {
	source := o.sourceAccount()
	if source == nil {
		return nil, ErrNoSourceAccount
	}

	candidates := []Candidate{}
	candidates = append(candidates, o.vasteLastenCandidates(*source)...)
	candidates = append(candidates, o.emergencyBufferCandidates(*source)...)
	candidates = append(candidates, o.goalFundingCandidates(*source)...)
	candidates = append(candidates, o.optimizationCandidates(*source)...)

	for i := range candidates {
		candidates[i].Score = Score(candidates[i])
	}

	Rank(candidates)
	return candidates, nil
}

// sourceAccount is the account transfers are funded from: the checking
// account, or the income account when no checking account exists.
func (o *Optimizer) sourceAccount() *models.Account {
	if a := o.accountByRole(models.AccountRoleChecking); a != nil {
		return a
	}
	return o.accountByRole(models.AccountRoleIncome)
}

const seasonalAdjustmentFloor = 50

var (
	bufferBuildCap   = decimal.NewFromInt(500)
	bufferBuildSlack = decimal.NewFromInt(100)
	goalFundingFloor = decimal.NewFromInt(50)
	goalFundingCap   = decimal.NewFromInt(1000)
	checkingReserve  = decimal.NewFromInt(500)
	excessThreshold  = decimal.NewFromInt(200)
)

// vasteLastenCandidates funds the gap to the predicted monthly
// requirement, the seasonal surcharge, and the obligation buffer.
func (o *Optimizer) vasteLastenCandidates(source models.Account) []Candidate {
	forecast := o.in.Forecast
	if !forecast.BaseMonthly.IsPositive() {
		return nil
	}

	account := o.vasteLastenAccount()
	balance := decimal.Zero
	var hint *uuid.UUID
	if account != nil {
		balance = account.Balance
		id := account.ID
		hint = &id
	}

	var candidates []Candidate

	if gap := forecast.Total.Sub(balance); gap.IsPositive() {
		candidates = append(candidates, Candidate{
			Type:            TypeVasteLasten,
			Allocation:      models.AllocationBuffer,
			FromAccountID:   source.ID,
			DestinationHint: hint,
			Amount:          money.Cents(gap),
			Purpose:         fmt.Sprintf("Fund vaste lasten for %s", forecast.Month),
			Priority:        models.PriorityHigh,
			Urgency:         models.UrgencyWeekly,
			Confidence:      0.9,
			Impact:          Impact{RiskReduction: 0.8, OpportunityCost: 0.1},
		})
	}

	if forecast.SeasonalAdjustment.GreaterThan(decimal.NewFromInt(seasonalAdjustmentFloor)) {
		candidates = append(candidates, Candidate{
			Type:            TypeVasteLasten,
			Allocation:      models.AllocationBuffer,
			FromAccountID:   source.ID,
			DestinationHint: hint,
			Amount:          forecast.SeasonalAdjustment,
			Purpose:         fmt.Sprintf("Seasonal vaste lasten surcharge for %s", forecast.Month),
			Priority:        models.PriorityMedium,
			Urgency:         models.UrgencyMonthly,
			Confidence:      0.8,
			Impact:          Impact{RiskReduction: 0.5, OpportunityCost: 0.1},
		})
	}

	if bufferGap := forecast.RecommendedBuffer.Sub(balance); bufferGap.GreaterThan(bufferBuildSlack) {
		candidates = append(candidates, Candidate{
			Type:            TypeVasteLasten,
			Allocation:      models.AllocationBuffer,
			FromAccountID:   source.ID,
			DestinationHint: hint,
			Amount:          money.Min(money.Cents(bufferGap), bufferBuildCap),
			Purpose:         "Build up vaste lasten buffer",
			Priority:        models.PriorityMedium,
			Urgency:         models.UrgencyMonthly,
			Confidence:      0.75,
			Impact:          Impact{RiskReduction: 0.6, OpportunityCost: 0.2},
		})
	}

	return candidates
}

// emergencyBufferCandidates keeps the emergency fund at three months of
// average expenses, filling at most half a month per run.
func (o *Optimizer) emergencyBufferCandidates(source models.Account) []Candidate {
	goal := o.emergencyGoal()
	if goal == nil {
		return nil
	}

	monthly := o.averageMonthlyExpenses(3)
	if !monthly.IsPositive() {
		return nil
	}

	target := monthly.Mul(decimal.NewFromInt(3))
	if goal.CurrentAmount.GreaterThanOrEqual(target) {
		return nil
	}

	gap := target.Sub(goal.CurrentAmount)
	amount := money.Cents(money.Min(gap, monthly.Div(decimal.NewFromInt(2))))
	if !amount.IsPositive() {
		return nil
	}

	goalID := goal.ID
	return []Candidate{{
		Type:            TypeEmergencyBuffer,
		Allocation:      models.AllocationEmergency,
		GoalID:          &goalID,
		FromAccountID:   source.ID,
		DestinationHint: goal.LinkedAccountID,
		Amount:          amount,
		Purpose:         fmt.Sprintf("Grow emergency fund towards %s", money.Cents(target)),
		Priority:        models.PriorityHigh,
		Urgency:         models.UrgencyImmediate,
		Confidence:      0.95,
		Impact:          Impact{RiskReduction: 0.9, OpportunityCost: 0.15},
	}}
}

// goalFundingCandidates scores incomplete goals and funds the top three
// from the available surplus.
func (o *Optimizer) goalFundingCandidates(source models.Account) []Candidate {
	surplus := source.Balance.Sub(checkingReserve)
	if !surplus.IsPositive() {
		return nil
	}

	scored := scoreGoals(o.in.Goals, o.in.Preferences, o.in.Now)
	if len(scored) > 3 {
		scored = scored[:3]
	}

	var candidates []Candidate
	remaining := surplus
	for _, sg := range scored {
		if !remaining.IsPositive() {
			break
		}

		share := money.Cents(remaining.Mul(decimal.NewFromFloat(0.3)))
		amount := money.Min(money.Min(share, goalFundingCap), sg.goal.Remaining())
		if amount.LessThan(goalFundingFloor) {
			continue
		}

		priority := models.PriorityMedium
		if sg.score >= 0.6 {
			priority = models.PriorityHigh
		}

		goalID := sg.goal.ID
		candidates = append(candidates, Candidate{
			Type:            TypeGoalFunding,
			Allocation:      models.AllocationGoal,
			GoalID:          &goalID,
			FromAccountID:   source.ID,
			DestinationHint: sg.goal.LinkedAccountID,
			Amount:          amount,
			Purpose:         fmt.Sprintf("Contribution to goal %q", sg.goal.Name),
			Priority:        priority,
			Urgency:         models.UrgencyMonthly,
			Confidence:      money.Clamp01(0.6 + sg.score/3),
			Impact:          Impact{SavingsRate: 0.6, OpportunityCost: 0.1},
		})

		remaining = remaining.Sub(amount)
	}

	return candidates
}

// optimizationCandidates rebalances liquidity between checking and
// savings around an optimal working balance.
func (o *Optimizer) optimizationCandidates(source models.Account) []Candidate {
	monthly := o.averageMonthlyExpenses(3)
	if !monthly.IsPositive() {
		return nil
	}

	optimal := money.Cents(monthly.Mul(decimal.NewFromFloat(1.5)))
	savings := o.accountByRole(models.AccountRoleSavings)

	var candidates []Candidate

	excess := source.Balance.Sub(optimal)
	if excess.GreaterThan(excessThreshold) && savings != nil {
		savingsID := savings.ID
		candidates = append(candidates, Candidate{
			Type:            TypeOptimization,
			Allocation:      models.AllocationInvestment,
			FromAccountID:   source.ID,
			DestinationHint: &savingsID,
			Amount:          money.Cents(excess.Mul(decimal.NewFromFloat(0.8))),
			Purpose:         "Move idle balance to savings",
			Priority:        models.PriorityLow,
			Urgency:         models.UrgencyMonthly,
			Confidence:      0.7,
			Impact:          Impact{SavingsRate: 0.5, OpportunityCost: 0.05},
		})
	}

	lowMark := money.Cents(optimal.Mul(decimal.NewFromFloat(0.7)))
	if source.Balance.LessThan(lowMark) && savings != nil {
		shortfall := optimal.Sub(source.Balance)
		if savings.Balance.GreaterThan(shortfall) {
			sourceID := source.ID
			candidates = append(candidates, Candidate{
				Type:            TypeOptimization,
				Allocation:      models.AllocationBuffer,
				FromAccountID:   savings.ID,
				DestinationHint: &sourceID,
				Amount:          money.Cents(shortfall),
				Purpose:         "Replenish checking balance from savings",
				Priority:        models.PriorityMedium,
				Urgency:         models.UrgencyWeekly,
				Confidence:      0.75,
				Impact:          Impact{RiskReduction: 0.4, OpportunityCost: 0.1},
			})
		}
	}

	return candidates
}

// vasteLastenAccount is the account fixed obligations are paid from:
// an account named for it, or the savings account as stand-in.
func (o *Optimizer) vasteLastenAccount() *models.Account {
	for i := range o.in.Accounts {
		if strings.Contains(strings.ToLower(o.in.Accounts[i].Name), "vaste") {
			return &o.in.Accounts[i]
		}
	}
	return o.accountByRole(models.AccountRoleSavings)
}

// emergencyGoal finds the incomplete emergency goal, if any.
func (o *Optimizer) emergencyGoal() *models.Goal {
	for i := range o.in.Goals {
		g := &o.in.Goals[i]
		if g.Completed {
			continue
		}
		name := strings.ToLower(g.Name)
		if strings.Contains(name, "emergency") || strings.Contains(name, "noodfonds") || strings.Contains(name, "buffer") {
			return g
		}
	}
	return nil
}

// averageMonthlyExpenses is the mean of absolute expense amounts over
// the trailing months.
func (o *Optimizer) averageMonthlyExpenses(months int) decimal.Decimal {
	if months < 1 {
		months = 3
	}
	cutoff := o.in.Now.AddDate(0, -months, 0)

	total := decimal.Zero
	for _, t := range o.in.Transactions {
		if !t.IsExpense() || t.Date.Before(cutoff) {
			continue
		}
		total = total.Add(t.Amount.Abs())
	}

	return money.Cents(total.Div(decimal.NewFromInt(int64(months))))
}

func (o *Optimizer) accountByRole(role models.AccountRole) *models.Account {
	for i := range o.in.Accounts {
		if o.in.Accounts[i].Role == role {
			return &o.in.Accounts[i]
		}
	}
	return nil
}
