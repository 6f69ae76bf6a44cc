package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationType describes what a transfer is meant to fund.
type AllocationType string

const (
	AllocationBuffer     AllocationType = "buffer"
	AllocationGoal       AllocationType = "goal"
	AllocationInvestment AllocationType = "investment"
	AllocationEmergency  AllocationType = "emergency"
)

// Valid reports whether the allocation type is known.
func (t AllocationType) Valid() bool {
	switch t {
	case AllocationBuffer, AllocationGoal, AllocationInvestment, AllocationEmergency:
		return true
	}
	return false
}

// TransferPreference routes an allocation type to a destination account.
//
// Exactly one selector must be set: a direct account ID, an account role,
// or a regex pattern matched against goal names. Preferences with a lower
// priority value take precedence.
type TransferPreference struct {
	DefaultModel
	UserID      uuid.UUID      `json:"userId" gorm:"index"`
	Type        AllocationType `json:"type"`
	Priority    int            `json:"priority"`
	AccountID   *uuid.UUID     `json:"accountId"`
	AccountRole AccountRole    `json:"accountRole"`
	GoalPattern string         `json:"goalPattern"`
	Active      bool           `json:"active"`
}

// BeforeSave verifies the allocation type and that exactly one selector is set.
func (p *TransferPreference) BeforeSave(_ *gorm.DB) error {
	p.GoalPattern = strings.TrimSpace(p.GoalPattern)

	if !p.Type.Valid() {
		return ErrPreferenceTypeInvalid
	}

	selectors := 0
	if p.AccountID != nil {
		selectors++
	}
	if p.AccountRole != AccountRoleUnset {
		selectors++
	}
	if p.GoalPattern != "" {
		selectors++
	}

	if selectors != 1 {
		return ErrPreferenceSelectorMissing
	}

	return nil
}
