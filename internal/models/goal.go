package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Goal is a savings goal of a user, optionally linked to the account
// the saved money lives on.
type Goal struct {
	DefaultModel
	UserID          uuid.UUID       `json:"userId" gorm:"index"`
	Name            string          `json:"name"`
	TargetAmount    decimal.Decimal `json:"targetAmount" gorm:"type:DECIMAL(20,8)"`
	CurrentAmount   decimal.Decimal `json:"currentAmount" gorm:"type:DECIMAL(20,8)"`
	LinkedAccountID *uuid.UUID      `json:"linkedAccountId"`
	Priority        int             `json:"priority"` // lower values are funded first
	TargetDate      *time.Time      `json:"targetDate"`
	Completed       bool            `json:"completed"`
}

func (g *Goal) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)

	return nil
}

func (g *Goal) AfterSave(_ *gorm.DB) error {
	if !g.TargetAmount.IsPositive() {
		return ErrGoalAmountNotPositive
	}

	return nil
}

// Remaining returns the amount still missing to reach the target.
// It is never negative.
func (g Goal) Remaining() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Progress returns the funding progress as a fraction in [0,1].
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}

	p, _ := g.CurrentAmount.Div(g.TargetAmount).Float64()
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
