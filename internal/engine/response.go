package engine

import (
	"time"

	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/recovery"
	"github.com/geldwijs/backend/internal/vastelasten"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request is the typed input for a recommendation run.
type Request struct {
	UserID             uuid.UUID       `json:"userId" binding:"required"`
	ForceRecalculation bool            `json:"forceRecalculation"`
	IncludeIntelligent bool            `json:"includeIntelligentRecommendations"`
	MaxRecommendations int             `json:"maxRecommendations"`
	MinTransferAmount  decimal.Decimal `json:"minTransferAmount"`
}

// validate applies defaults and rejects malformed requests.
func (r *Request) validate(defaults Options) error {
	if r.UserID == uuid.Nil {
		return recovery.Validationf("a user ID is required")
	}

	if r.MaxRecommendations < 0 {
		return recovery.Validationf("maxRecommendations must not be negative")
	}
	if r.MaxRecommendations == 0 {
		r.MaxRecommendations = defaults.MaxRecommendations
	}

	if r.MinTransferAmount.IsNegative() {
		return recovery.Validationf("minTransferAmount must not be negative")
	}
	if r.MinTransferAmount.IsZero() {
		r.MinTransferAmount = defaults.MinTransferAmount
	}

	return nil
}

// Strategy is the generation strategy the orchestrator selected.
type Strategy string

const (
	StrategyIntelligent Strategy = "intelligent"
	StrategyBasic       Strategy = "basic"
	StrategyFallback    Strategy = "fallback"
)

// GoalAllocation is the share of the surplus assigned to one goal.
type GoalAllocation struct {
	GoalID uuid.UUID       `json:"goalId"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Allocation is the monthly surplus split across spending categories.
type Allocation struct {
	MonthlyIncome     decimal.Decimal  `json:"monthlyIncome"`
	EssentialExpenses decimal.Decimal  `json:"essentialExpenses"`
	PocketMoney       decimal.Decimal  `json:"pocketMoney"`
	BufferAllocation  decimal.Decimal  `json:"bufferAllocation"`
	GoalAllocations   []GoalAllocation `json:"goalAllocations"`
	Surplus           decimal.Decimal  `json:"surplus"`
}

// Summary aggregates the recommendation set for display.
type Summary struct {
	TotalAmount          decimal.Decimal               `json:"totalAmount"`
	TransferCount        int                           `json:"transferCount"`
	AdvisoryCount        int                           `json:"advisoryCount"`
	MonthlyFixedExpenses decimal.Decimal               `json:"monthlyFixedExpenses"`
	RecommendedBuffer    decimal.Decimal               `json:"recommendedBuffer"`
	UpcomingExpenses     []vastelasten.UpcomingExpense `json:"upcomingExpenses,omitempty"`
	PlannedTransfers     []vastelasten.PlannedTransfer `json:"plannedTransfers,omitempty"`
	PatternsDetected     int                           `json:"patternsDetected"`
	AnomaliesDetected    int                           `json:"anomaliesDetected"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	GeneratedAt            time.Time     `json:"generatedAt"`
	EngineVersion          string        `json:"engineVersion"`
	ValidationPassed       bool          `json:"validationPassed"`
	DataQuality            QualityBucket `json:"dataQuality"`
	QualityScore           int           `json:"qualityScore"`
	RecommendationStrategy Strategy      `json:"recommendationStrategy"`
	ProcessingTime         time.Duration `json:"processingTime"`
	WarningCount           int           `json:"warningCount"`
	ErrorCount             int           `json:"errorCount"`
}

// Response is the complete result of a recommendation run. Callers
// always receive a well-formed response, degraded runs carry warnings
// instead of failing.
type Response struct {
	Success         bool                            `json:"success"`
	Recommendations []models.TransferRecommendation `json:"recommendations"`
	Allocation      Allocation                      `json:"allocation"`
	Summary         Summary                         `json:"summary"`
	Metadata        Metadata                        `json:"metadata"`
	Warnings        []string                        `json:"warnings,omitempty"`
	Errors          []string                        `json:"errors,omitempty"`
}
