package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecommendationKind discriminates executable transfers from advisories.
//
// An advisory tells the user to act outside the engine's reach, for
// example to open an emergency account. It references the account it
// concerns in both columns and must never be executed as a transfer.
type RecommendationKind string

const (
	KindTransfer RecommendationKind = "transfer"
	KindAdvisory RecommendationKind = "advisory"
)

// Priority is the importance of a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable rank, higher is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Urgency is how soon a recommendation should be acted on.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyWeekly    Urgency = "weekly"
	UrgencyMonthly   Urgency = "monthly"
)

// Rank returns a sortable rank, higher is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyImmediate:
		return 3
	case UrgencyWeekly:
		return 2
	case UrgencyMonthly:
		return 1
	}
	return 0
}

// RecommendationStatus is the lifecycle state of a recommendation.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "pending"
	StatusReplaced RecommendationStatus = "replaced"
)

// TransferRecommendation is a ranked suggestion to move money between
// two accounts of the user, produced by the recommendation engine.
type TransferRecommendation struct {
	DefaultModel
	UserID        uuid.UUID            `json:"userId" gorm:"index"`
	Kind          RecommendationKind   `json:"kind"`
	FromAccountID uuid.UUID            `json:"fromAccountId"`
	ToAccountID   uuid.UUID            `json:"toAccountId"`
	Amount        decimal.Decimal      `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Purpose       string               `json:"purpose"`
	Priority      Priority             `json:"priority"`
	Urgency       Urgency              `json:"urgency"`
	Confidence    float64              `json:"confidence"`
	GoalID        *uuid.UUID           `json:"goalId"`
	Status        RecommendationStatus `json:"status"`
	ValidUntil    time.Time            `json:"validUntil"`
}

// BeforeSave enforces the recommendation invariants.
func (r *TransferRecommendation) BeforeSave(_ *gorm.DB) error {
	if !r.Amount.IsPositive() {
		return ErrRecommendationAmountNotPositive
	}

	switch r.Kind {
	case KindAdvisory:
		if r.FromAccountID != r.ToAccountID {
			return ErrRecommendationAdvisoryAccounts
		}
	default:
		if r.FromAccountID == r.ToAccountID {
			return ErrRecommendationSameAccount
		}
	}

	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}

	if r.Status == "" {
		r.Status = StatusPending
	}

	return nil
}

// IsTransfer reports whether the recommendation represents an
// executable account-to-account transfer.
func (r TransferRecommendation) IsTransfer() bool {
	return r.Kind == KindTransfer
}
