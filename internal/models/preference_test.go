package models_test

import (
	"testing"

	"github.com/geldwijs/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPreferenceBeforeSaveSelectors(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name       string
		preference models.TransferPreference
		err        error
	}{
		{
			"no selector",
			models.TransferPreference{Type: models.AllocationBuffer},
			models.ErrPreferenceSelectorMissing,
		},
		{
			"two selectors",
			models.TransferPreference{
				Type:        models.AllocationBuffer,
				AccountID:   &accountID,
				AccountRole: models.AccountRoleSavings,
			},
			models.ErrPreferenceSelectorMissing,
		},
		{
			"account ID selector",
			models.TransferPreference{Type: models.AllocationGoal, AccountID: &accountID},
			nil,
		},
		{
			"role selector",
			models.TransferPreference{Type: models.AllocationEmergency, AccountRole: models.AccountRoleEmergency},
			nil,
		},
		{
			"goal pattern selector",
			models.TransferPreference{Type: models.AllocationGoal, GoalPattern: "vakantie"},
			nil,
		},
		{
			"invalid type",
			models.TransferPreference{Type: models.AllocationType("gambling"), GoalPattern: "casino"},
			models.ErrPreferenceTypeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.preference.BeforeSave(nil)
			if tt.err == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestPreferenceBeforeSaveTrimsPattern(t *testing.T) {
	preference := models.TransferPreference{
		Type:        models.AllocationGoal,
		GoalPattern: "  vakantie  ",
	}

	err := preference.BeforeSave(nil)

	assert.Nil(t, err)
	assert.Equal(t, "vakantie", preference.GoalPattern)
}

// A pattern that is only whitespace must not count as a selector.
func TestPreferenceBeforeSaveWhitespacePattern(t *testing.T) {
	preference := models.TransferPreference{
		Type:        models.AllocationGoal,
		GoalPattern: "   ",
	}

	err := preference.BeforeSave(nil)
	assert.ErrorIs(t, err, models.ErrPreferenceSelectorMissing)
}
