package models_test

import (
	"time"

	"github.com/geldwijs/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestAccountsForUser() {
	userID := uuid.New()

	suite.createTestAccount(models.Account{UserID: userID, Name: "Betaalrekening", Role: models.AccountRoleChecking})
	suite.createTestAccount(models.Account{UserID: userID, Name: "Archief", Role: models.AccountRoleSavings, Archived: true})
	suite.createTestAccount(models.Account{UserID: uuid.New(), Name: "Andermans rekening", Role: models.AccountRoleChecking})

	accounts, err := models.AccountsForUser(userID)

	suite.Require().Nil(err)
	suite.Require().Len(accounts, 1)
	suite.Assert().Equal("Betaalrekening", accounts[0].Name)
}

func (suite *TestSuiteStandard) TestTransactionsForUser() {
	userID := uuid.New()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.createTestTransaction(models.Transaction{
		UserID: userID,
		Amount: decimal.NewFromInt(-100),
		Date:   time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
	})
	newer := suite.createTestTransaction(models.Transaction{
		UserID: userID,
		Amount: decimal.NewFromInt(-300),
		Date:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	older := suite.createTestTransaction(models.Transaction{
		UserID: userID,
		Amount: decimal.NewFromInt(-200),
		Date:   time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	})

	transactions, err := models.TransactionsForUser(userID, since)

	suite.Require().Nil(err)
	suite.Require().Len(transactions, 2)

	// Oldest first, the transaction before the cutoff is excluded.
	suite.Assert().Equal(older.ID, transactions[0].ID)
	suite.Assert().Equal(newer.ID, transactions[1].ID)
}

func (suite *TestSuiteStandard) TestGoalsForUser() {
	userID := uuid.New()

	second := suite.createTestGoal(models.Goal{UserID: userID, Name: "Vakantie", TargetAmount: decimal.NewFromInt(3000), Priority: 2})
	first := suite.createTestGoal(models.Goal{UserID: userID, Name: "Noodfonds", TargetAmount: decimal.NewFromInt(6000), Priority: 1})

	goals, err := models.GoalsForUser(userID)

	suite.Require().Nil(err)
	suite.Require().Len(goals, 2)
	suite.Assert().Equal(first.ID, goals[0].ID)
	suite.Assert().Equal(second.ID, goals[1].ID)
}

func (suite *TestSuiteStandard) TestPreferencesForUser() {
	userID := uuid.New()

	active := suite.createTestPreference(models.TransferPreference{
		UserID:      userID,
		Type:        models.AllocationBuffer,
		AccountRole: models.AccountRoleSavings,
		Priority:    1,
		Active:      true,
	})
	suite.createTestPreference(models.TransferPreference{
		UserID:      userID,
		Type:        models.AllocationGoal,
		GoalPattern: "vakantie",
		Priority:    2,
		Active:      false,
	})

	preferences, err := models.PreferencesForUser(userID)

	suite.Require().Nil(err)
	suite.Require().Len(preferences, 1)
	suite.Assert().Equal(active.ID, preferences[0].ID)
}

func (suite *TestSuiteStandard) TestReplacePendingRecommendations() {
	userID := uuid.New()

	old := suite.createTestRecommendation(models.TransferRecommendation{
		UserID:        userID,
		Kind:          models.KindTransfer,
		FromAccountID: uuid.New(),
		ToAccountID:   uuid.New(),
		Amount:        decimal.NewFromInt(100),
	})

	replacement := []models.TransferRecommendation{
		{
			Kind:          models.KindTransfer,
			FromAccountID: uuid.New(),
			ToAccountID:   uuid.New(),
			Amount:        decimal.NewFromInt(250),
		},
		{
			Kind:          models.KindTransfer,
			FromAccountID: uuid.New(),
			ToAccountID:   uuid.New(),
			Amount:        decimal.NewFromInt(75),
		},
	}

	err := models.ReplacePendingRecommendations(userID, replacement)
	suite.Require().Nil(err)

	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Require().Len(pending, 2)
	for _, r := range pending {
		suite.Assert().NotEqual(old.ID, r.ID)
		suite.Assert().Equal(userID, r.UserID)
	}

	var superseded models.TransferRecommendation
	err = models.DB.First(&superseded, "id = ?", old.ID).Error
	suite.Require().Nil(err)
	suite.Assert().Equal(models.StatusReplaced, superseded.Status)
}

func (suite *TestSuiteStandard) TestReplacePendingRecommendationsRollsBack() {
	userID := uuid.New()

	old := suite.createTestRecommendation(models.TransferRecommendation{
		UserID:        userID,
		Kind:          models.KindTransfer,
		FromAccountID: uuid.New(),
		ToAccountID:   uuid.New(),
		Amount:        decimal.NewFromInt(100),
	})

	// The second recommendation violates the amount invariant, the whole
	// replacement must roll back.
	replacement := []models.TransferRecommendation{
		{
			Kind:          models.KindTransfer,
			FromAccountID: uuid.New(),
			ToAccountID:   uuid.New(),
			Amount:        decimal.NewFromInt(250),
		},
		{
			Kind:          models.KindTransfer,
			FromAccountID: uuid.New(),
			ToAccountID:   uuid.New(),
			Amount:        decimal.Zero,
		},
	}

	err := models.ReplacePendingRecommendations(userID, replacement)
	suite.Require().NotNil(err)

	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Require().Len(pending, 1)
	suite.Assert().Equal(old.ID, pending[0].ID)
}

func (suite *TestSuiteStandard) TestReplacePendingRecommendationsEmptySet() {
	userID := uuid.New()

	suite.createTestRecommendation(models.TransferRecommendation{
		UserID:        userID,
		Kind:          models.KindTransfer,
		FromAccountID: uuid.New(),
		ToAccountID:   uuid.New(),
		Amount:        decimal.NewFromInt(100),
	})

	err := models.ReplacePendingRecommendations(userID, nil)
	suite.Require().Nil(err)

	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Assert().Empty(pending)
}
