package models_test

import (
	"testing"

	"github.com/geldwijs/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccountBeforeSaveTrimsName(t *testing.T) {
	account := models.Account{
		Name: "  Betaalrekening ",
		Role: models.AccountRoleChecking,
	}

	err := account.BeforeSave(nil)

	assert.Nil(t, err)
	assert.Equal(t, "Betaalrekening", account.Name)
}

func TestAccountBeforeSaveInvalidRole(t *testing.T) {
	account := models.Account{
		Name: "Betaalrekening",
		Role: models.AccountRole("slush fund"),
	}

	err := account.BeforeSave(nil)
	assert.ErrorIs(t, err, models.ErrAccountRoleInvalid)
}

func TestAccountRoleValid(t *testing.T) {
	assert.True(t, models.AccountRoleUnset.Valid())
	assert.True(t, models.AccountRoleChecking.Valid())
	assert.True(t, models.AccountRoleEmergency.Valid())
	assert.False(t, models.AccountRole("petty cash").Valid())
}

func (suite *TestSuiteStandard) TestAccountCreate() {
	account := suite.createTestAccount(models.Account{
		Name:    "Spaarrekening",
		Role:    models.AccountRoleSavings,
		Balance: decimal.NewFromInt(1000),
	})

	suite.Assert().NotZero(account.ID)
	suite.Assert().NotZero(account.CreatedAt)
}
