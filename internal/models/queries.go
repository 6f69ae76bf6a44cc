package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountsForUser returns all non-archived accounts of the user.
func AccountsForUser(userID uuid.UUID) ([]Account, error) {
	var accounts []Account

	err := DB.
		Where(&Account{UserID: userID}).
		Where("archived = ?", false).
		Order("name ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("getting accounts for user %s failed: %w", userID, err)
	}

	return accounts, nil
}

// TransactionsForUser returns all transactions of the user booked at or
// after the since time, oldest first.
func TransactionsForUser(userID uuid.UUID, since time.Time) ([]Transaction, error) {
	var transactions []Transaction

	err := DB.
		Where(&Transaction{UserID: userID}).
		Where("datetime(transactions.date) >= datetime(?)", since).
		Order("datetime(transactions.date) ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("getting transactions for user %s failed: %w", userID, err)
	}

	return transactions, nil
}

// GoalsForUser returns all goals of the user, highest priority
// (lowest value) first.
func GoalsForUser(userID uuid.UUID) ([]Goal, error) {
	var goals []Goal

	err := DB.
		Where(&Goal{UserID: userID}).
		Order("priority ASC").
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("getting goals for user %s failed: %w", userID, err)
	}

	return goals, nil
}

// PreferencesForUser returns all active transfer preferences of the user
// ordered by ascending priority value.
func PreferencesForUser(userID uuid.UUID) ([]TransferPreference, error) {
	var preferences []TransferPreference

	err := DB.
		Where(&TransferPreference{UserID: userID}).
		Where("active = ?", true).
		Order("priority ASC").
		Find(&preferences).Error
	if err != nil {
		return nil, fmt.Errorf("getting transfer preferences for user %s failed: %w", userID, err)
	}

	return preferences, nil
}

// PendingRecommendations returns the currently pending recommendation
// set for the user.
func PendingRecommendations(userID uuid.UUID) ([]TransferRecommendation, error) {
	var recommendations []TransferRecommendation

	err := DB.
		Where(&TransferRecommendation{UserID: userID, Status: StatusPending}).
		Find(&recommendations).Error
	if err != nil {
		return nil, fmt.Errorf("getting pending recommendations for user %s failed: %w", userID, err)
	}

	return recommendations, nil
}

// ReplacePendingRecommendations supersedes all pending recommendations
// of the user with the new set in a single transaction. External readers
// never observe two pending sets for one user.
func ReplacePendingRecommendations(userID uuid.UUID, recommendations []TransferRecommendation) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// UpdateColumn skips the model hooks, they would reject the
		// empty model used for the batch update.
		err := tx.
			Model(&TransferRecommendation{}).
			Where(&TransferRecommendation{UserID: userID, Status: StatusPending}).
			UpdateColumn("status", StatusReplaced).Error
		if err != nil {
			return fmt.Errorf("superseding pending recommendations for user %s failed: %w", userID, err)
		}

		for i := range recommendations {
			recommendations[i].UserID = userID
			recommendations[i].Status = StatusPending

			err := tx.Create(&recommendations[i]).Error
			if err != nil {
				return fmt.Errorf("saving recommendation for user %s failed: %w", userID, err)
			}
		}

		return nil
	})
}
