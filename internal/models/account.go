package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountRole describes the function an account has for the user.
type AccountRole string

const (
	AccountRoleUnset      AccountRole = ""
	AccountRoleIncome     AccountRole = "income"
	AccountRoleChecking   AccountRole = "checking"
	AccountRoleSavings    AccountRole = "savings"
	AccountRoleEmergency  AccountRole = "emergency"
	AccountRoleInvestment AccountRole = "investment"
	AccountRoleGoal       AccountRole = "goal"
)

// Valid reports whether the role is one of the known account roles.
func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleUnset, AccountRoleIncome, AccountRoleChecking, AccountRoleSavings,
		AccountRoleEmergency, AccountRoleInvestment, AccountRoleGoal:
		return true
	}
	return false
}

// Account represents a bank account of a user.
//
// The balance is authoritative context for available funds,
// the recommendation engine reads accounts and never writes them.
type Account struct {
	DefaultModel
	UserID   uuid.UUID       `json:"userId" gorm:"index"`
	Name     string          `json:"name"`
	Role     AccountRole     `json:"role"`
	Balance  decimal.Decimal `json:"balance" gorm:"type:DECIMAL(20,8)"`
	Archived bool            `json:"archived"`
}

// BeforeSave trims whitespace and verifies the role.
func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.Name = strings.TrimSpace(a.Name)

	if !a.Role.Valid() {
		return ErrAccountRoleInvalid
	}

	return nil
}
