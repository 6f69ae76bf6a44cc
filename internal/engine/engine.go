// Package engine implements the unified recommendation orchestrator.
//
// A generation run validates its input, scores the available data,
// selects a strategy, generates candidates, resolves destinations and
// persists the final set, all under the user's exclusive lease. Any
// failure past boundary validation degrades to a conservative fallback
// response instead of propagating.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geldwijs/backend/internal/analyzer"
	"github.com/geldwijs/backend/internal/destination"
	"github.com/geldwijs/backend/internal/lease"
	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/money"
	"github.com/geldwijs/backend/internal/optimizer"
	"github.com/geldwijs/backend/internal/recovery"
	"github.com/geldwijs/backend/internal/types"
	"github.com/geldwijs/backend/internal/vastelasten"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// engineVersion is reported in the response metadata.
const engineVersion = "1.3.0"

// validityDays is how long a generated recommendation stays valid.
const validityDays = 7

// Options are the engine configuration knobs.
type Options struct {
	MaxRecommendations int
	MinTransferAmount  decimal.Decimal
	Timeout            time.Duration
	LookbackMonths     int
	// WaitForLease makes concurrent runs for the same user queue up
	// instead of failing fast with ErrBusy.
	WaitForLease bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxRecommendations: 10,
		MinTransferAmount:  decimal.NewFromInt(25),
		Timeout:            30 * time.Second,
		LookbackMonths:     12,
		WaitForLease:       true,
	}
}

// Engine generates transfer recommendations. It is stateless apart
// from the lease table and safe for concurrent use.
type Engine struct {
	leases *lease.Table
	opts   Options
	now    func() time.Time
}

// New returns an Engine using the given lease table.
func New(leases *lease.Table, opts Options) *Engine {
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = DefaultOptions().MaxRecommendations
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = DefaultOptions().LookbackMonths
	}

	return &Engine{
		leases: leases,
		opts:   opts,
		now:    func() time.Time { return time.Now().In(time.UTC) },
	}
}

// userContext is the read-only input context loaded from the store.
type userContext struct {
	accounts     []models.Account
	transactions []models.Transaction
	goals        []models.Goal
	preferences  []models.TransferPreference
}

// GenerateRecommendations runs the full pipeline for one user.
//
// It returns an error only for boundary failures: a malformed request,
// an unknown user, or a busy lease. Everything else produces a
// well-formed, possibly degraded, response.
func (e *Engine) GenerateRecommendations(ctx context.Context, request Request) (*Response, error) {
	start := e.now()

	if err := request.validate(e.opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	release, err := e.acquireLease(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	uc, err := e.loadContext(ctx, request.UserID)
	if err != nil {
		if recovery.Classify(err) == recovery.ClassValidation {
			return nil, err
		}

		// The store stayed unavailable through all retries. The caller
		// still gets a well-formed, empty fallback response.
		log.Error().Err(err).Stringer("userId", request.UserID).Msg("loading user context failed")
		return e.degradedResponse(start, err), nil
	}

	quality := assessDataQuality(len(uc.accounts), len(uc.transactions), len(uc.goals), len(uc.preferences))
	strategy := selectStrategy(request.IncludeIntelligent, quality.Bucket)

	log.Debug().
		Stringer("userId", request.UserID).
		Int("qualityScore", quality.Score).
		Str("dataQuality", string(quality.Bucket)).
		Str("strategy", string(strategy)).
		Msg("recommendation run started")

	now := e.now()
	a := analyzer.New(e.opts.LookbackMonths)
	patterns := a.Analyze(uc.transactions, now)
	fixed := analyzer.FixedPatterns(patterns)
	anomalies := a.DetectAnomalies(uc.transactions, patterns, now)

	predictor := vastelasten.New()
	forecast := predictor.MonthlyRequirement(fixed, types.MonthOf(now).AddDate(0, 1))
	upcoming := predictor.UpcomingExpenses(fixed, now, 3)
	schedule := predictor.TransferSchedule(fixed, forecast, now)

	// The allocation is computed for every strategy, it is part of the
	// response even when only the fallback runs.
	allocation := computeAllocation(uc.transactions, uc.goals, forecast, now)

	var warnings []string

	candidates, err := e.generate(strategy, uc, fixed, forecast, allocation, now, &warnings)
	if err != nil || ctx.Err() != nil {
		if err == nil {
			err = recovery.Transient(ctx.Err())
		}
		log.Warn().Err(err).Stringer("userId", request.UserID).Msg("strategy failed, degrading to fallback")
		warnings = append(warnings, fmt.Sprintf("%s strategy failed, conservative fallback applied", strategy))
		strategy = StrategyFallback
		candidates = e.fallbackCandidates(uc, &warnings)
	}

	resolver := destination.NewResolver(uc.accounts, uc.goals, uc.preferences)
	recommendations := e.buildRecommendations(request, uc, candidates, resolver, now, &warnings)
	warnings = append(warnings, resolver.Warnings...)

	var errs []string
	persistErr := recovery.Retry(ctx, func() error {
		return recovery.Transient(models.ReplacePendingRecommendations(request.UserID, recommendations))
	}, recovery.Options{})
	if persistErr != nil {
		log.Error().Err(persistErr).Stringer("userId", request.UserID).Msg("persisting recommendations failed")
		errs = append(errs, "the recommendation set could not be persisted")
	}

	runsTotal.WithLabelValues(string(strategy)).Inc()

	response := &Response{
		Success:         len(errs) == 0,
		Recommendations: recommendations,
		Allocation:      allocation,
		Summary:         summarize(recommendations, forecast, upcoming, schedule, len(fixed), len(anomalies)),
		Metadata: Metadata{
			GeneratedAt:            start,
			EngineVersion:          engineVersion,
			ValidationPassed:       true,
			DataQuality:            quality.Bucket,
			QualityScore:           quality.Score,
			RecommendationStrategy: strategy,
			ProcessingTime:         e.now().Sub(start),
			WarningCount:           len(warnings),
			ErrorCount:             len(errs),
		},
		Warnings: warnings,
		Errors:   errs,
	}

	return response, nil
}

// degradedResponse is the empty fallback response returned when the
// user's context could not be loaded at all.
func (e *Engine) degradedResponse(start time.Time, err error) *Response {
	runsTotal.WithLabelValues(string(StrategyFallback)).Inc()

	return &Response{
		Success:         false,
		Recommendations: []models.TransferRecommendation{},
		Warnings:        []string{"user data could not be loaded, conservative fallback applied"},
		Errors:          []string{err.Error()},
		Metadata: Metadata{
			GeneratedAt:            start,
			EngineVersion:          engineVersion,
			ValidationPassed:       true,
			DataQuality:            QualityPoor,
			RecommendationStrategy: StrategyFallback,
			ProcessingTime:         e.now().Sub(start),
			WarningCount:           1,
			ErrorCount:             1,
		},
	}
}

// acquireLease takes the user's exclusive lease, either waiting for it
// or failing fast depending on the options.
func (e *Engine) acquireLease(ctx context.Context, userID uuid.UUID) (func(), error) {
	if !e.opts.WaitForLease {
		return e.leases.TryAcquire(userID)
	}

	release, err := e.leases.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: lease not acquired within %s", lease.ErrBusy, e.opts.Timeout)
		}
		return nil, err
	}
	return release, nil
}

// loadContext reads the user's data from the store, retrying transient
// store failures.
func (e *Engine) loadContext(ctx context.Context, userID uuid.UUID) (*userContext, error) {
	uc := &userContext{}
	since := e.now().AddDate(0, -e.opts.LookbackMonths, 0)

	err := recovery.Retry(ctx, func() error {
		var err error
		if uc.accounts, err = models.AccountsForUser(userID); err != nil {
			return recovery.Transient(err)
		}
		if uc.transactions, err = models.TransactionsForUser(userID, since); err != nil {
			return recovery.Transient(err)
		}
		if uc.goals, err = models.GoalsForUser(userID); err != nil {
			return recovery.Transient(err)
		}
		if uc.preferences, err = models.PreferencesForUser(userID); err != nil {
			return recovery.Transient(err)
		}
		return nil
	}, recovery.Options{})
	if err != nil {
		return nil, err
	}

	if len(uc.accounts) == 0 {
		return nil, recovery.Validationf("no accounts found for user %s", userID)
	}

	return uc, nil
}

// generate produces candidates for the selected strategy.
func (e *Engine) generate(strategy Strategy, uc *userContext, fixed []analyzer.Pattern, forecast vastelasten.Forecast, allocation Allocation, now time.Time, warnings *[]string) ([]optimizer.Candidate, error) {
	switch strategy {
	case StrategyIntelligent:
		opt := optimizer.New(optimizer.Input{
			Accounts:     uc.accounts,
			Goals:        uc.goals,
			Preferences:  uc.preferences,
			Transactions: uc.transactions,
			Patterns:     fixed,
			Forecast:     forecast,
			Now:          now,
		})
		candidates, err := opt.Generate()
		if err != nil {
			return nil, recovery.Businessf("%v", err)
		}
		// An empty set from a healthy run stays on the intelligent
		// strategy, there is simply nothing to recommend.
		return candidates, nil

	case StrategyBasic:
		return e.basicCandidates(uc, allocation), nil

	default:
		return e.fallbackCandidates(uc, warnings), nil
	}
}

// basicCandidates converts the surplus allocation into candidates.
func (e *Engine) basicCandidates(uc *userContext, allocation Allocation) []optimizer.Candidate {
	source := sourceAccount(uc.accounts)
	if source == nil {
		return nil
	}

	var candidates []optimizer.Candidate

	if allocation.BufferAllocation.IsPositive() {
		candidates = append(candidates, optimizer.Candidate{
			Type:          optimizer.TypeEmergencyBuffer,
			Allocation:    models.AllocationEmergency,
			FromAccountID: source.ID,
			Amount:        allocation.BufferAllocation,
			Purpose:       "Monthly buffer contribution",
			Priority:      models.PriorityHigh,
			Urgency:       models.UrgencyWeekly,
			Confidence:    0.8,
			Impact:        optimizer.Impact{RiskReduction: 0.7, OpportunityCost: 0.1},
		})
	}

	for _, ga := range allocation.GoalAllocations {
		goalID := ga.GoalID
		candidates = append(candidates, optimizer.Candidate{
			Type:          optimizer.TypeGoalFunding,
			Allocation:    models.AllocationGoal,
			GoalID:        &goalID,
			FromAccountID: source.ID,
			Amount:        ga.Amount,
			Purpose:       fmt.Sprintf("Contribution to goal %q", ga.Name),
			Priority:      models.PriorityMedium,
			Urgency:       models.UrgencyMonthly,
			Confidence:    0.75,
			Impact:        optimizer.Impact{SavingsRate: 0.5, OpportunityCost: 0.1},
		})
	}

	for i := range candidates {
		candidates[i].Score = optimizer.Score(candidates[i])
	}
	optimizer.Rank(candidates)

	return candidates
}

// fallbackCandidates produces at most one minimal, conservative
// recommendation.
func (e *Engine) fallbackCandidates(uc *userContext, warnings *[]string) []optimizer.Candidate {
	source := sourceAccount(uc.accounts)
	if source == nil {
		*warnings = append(*warnings, "no account available to fund transfers from")
		return nil
	}

	amount := money.Min(money.Cents(source.Balance.Mul(decimal.NewFromFloat(0.10))), decimal.NewFromInt(100))
	if !amount.IsPositive() {
		*warnings = append(*warnings, "no positive balance available for a conservative recommendation")
		return nil
	}

	return []optimizer.Candidate{{
		Type:          optimizer.TypeEmergencyBuffer,
		Allocation:    models.AllocationEmergency,
		FromAccountID: source.ID,
		Amount:        amount,
		Purpose:       "Conservative emergency contribution",
		Priority:      models.PriorityMedium,
		Urgency:       models.UrgencyMonthly,
		Confidence:    0.5,
		Impact:        optimizer.Impact{RiskReduction: 0.5, OpportunityCost: 0.05},
	}}
}

// buildRecommendations resolves destinations, validates every
// candidate against the business rules and caps the final list.
func (e *Engine) buildRecommendations(request Request, uc *userContext, candidates []optimizer.Candidate, resolver *destination.Resolver, now time.Time, warnings *[]string) []models.TransferRecommendation {
	validUntil := now.AddDate(0, 0, validityDays)
	recommendations := make([]models.TransferRecommendation, 0, len(candidates))

	for _, c := range candidates {
		if len(recommendations) >= request.MaxRecommendations {
			break
		}

		if !c.Amount.IsPositive() {
			log.Debug().Str("purpose", c.Purpose).Msg("candidate dropped: non-positive amount")
			continue
		}

		kind := models.KindTransfer
		purpose := c.Purpose
		confidence := money.Clamp01(c.Confidence)
		to := c.DestinationHint

		if to == nil {
			resolution := resolver.Resolve(c.Allocation, c.GoalID)
			switch {
			case resolution != nil:
				to = &resolution.AccountID
				if resolution.Confidence < confidence {
					confidence = resolution.Confidence
				}

			case c.Allocation == models.AllocationBuffer || c.Allocation == models.AllocationEmergency:
				// No destination exists, advise establishing one.
				kind = models.KindAdvisory
				id := c.FromAccountID
				to = &id
				purpose = "Establish an emergency fund: open a dedicated savings account to receive this buffer"
				*warnings = append(*warnings, "no emergency or savings account configured")

			default:
				log.Debug().Str("purpose", c.Purpose).Msg("candidate dropped: no destination account")
				*warnings = append(*warnings, fmt.Sprintf("no destination account for %s allocation", c.Allocation))
				continue
			}
		}

		if kind == models.KindTransfer {
			if *to == c.FromAccountID {
				log.Debug().Str("purpose", c.Purpose).Msg("candidate dropped: source equals destination")
				continue
			}
			if c.Amount.LessThan(request.MinTransferAmount) {
				log.Debug().Str("purpose", c.Purpose).Msg("candidate dropped: below minimum transfer amount")
				continue
			}
		}

		recommendations = append(recommendations, models.TransferRecommendation{
			UserID:        request.UserID,
			Kind:          kind,
			FromAccountID: c.FromAccountID,
			ToAccountID:   *to,
			Amount:        money.Cents(c.Amount),
			Purpose:       purpose,
			Priority:      c.Priority,
			Urgency:       c.Urgency,
			Confidence:    confidence,
			GoalID:        c.GoalID,
			Status:        models.StatusPending,
			ValidUntil:    validUntil,
		})
	}

	return recommendations
}

func summarize(recommendations []models.TransferRecommendation, forecast vastelasten.Forecast, upcoming []vastelasten.UpcomingExpense, schedule []vastelasten.PlannedTransfer, patterns, anomalies int) Summary {
	summary := Summary{
		MonthlyFixedExpenses: forecast.Total,
		RecommendedBuffer:    forecast.RecommendedBuffer,
		UpcomingExpenses:     upcoming,
		PlannedTransfers:     schedule,
		PatternsDetected:     patterns,
		AnomaliesDetected:    anomalies,
	}

	for _, r := range recommendations {
		summary.TotalAmount = summary.TotalAmount.Add(r.Amount)
		if r.IsTransfer() {
			summary.TransferCount++
		} else {
			summary.AdvisoryCount++
		}
	}

	return summary
}

// sourceAccount is the checking account, or the income account when
// the user has no checking account.
func sourceAccount(accounts []models.Account) *models.Account {
	for i := range accounts {
		if accounts[i].Role == models.AccountRoleChecking {
			return &accounts[i]
		}
	}
	for i := range accounts {
		if accounts[i].Role == models.AccountRoleIncome {
			return &accounts[i]
		}
	}
	return nil
}
