package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction represents a single booked transaction on an account.
//
// Transactions are produced by the import pipeline and are immutable
// input for the recommendation engine. The amount is signed: negative
// amounts are money leaving the account.
type Transaction struct {
	DefaultModel
	UserID      uuid.UUID       `json:"userId" gorm:"index"`
	AccountID   uuid.UUID       `json:"accountId"`
	Account     Account         `json:"-"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Currency    string          `json:"currency"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	CategoryID  *uuid.UUID      `json:"categoryId"`
	IsIncome    bool            `json:"isIncome"`
}

// BeforeSave sets the timezone for the date to UTC and defaults the currency.
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	if t.Currency == "" {
		t.Currency = "EUR"
	}

	return nil
}

// AfterFind updates the date to use UTC as timezone, not +0000.
func (t *Transaction) AfterFind(_ *gorm.DB) error {
	t.Date = t.Date.In(time.UTC)
	return nil
}

// IsExpense reports whether the transaction is an expense,
// i.e. money leaving the account that is not an income booking.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative() && !t.IsIncome
}
