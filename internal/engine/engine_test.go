package engine_test

import (
	"context"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/geldwijs/backend/internal/engine"
	"github.com/geldwijs/backend/internal/lease"
	"github.com/geldwijs/backend/internal/models"
	"github.com/geldwijs/backend/internal/recovery"
	"github.com/geldwijs/backend/internal/types"
	"github.com/geldwijs/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TestSuiteStandard struct {
	suite.Suite
}

func TestSuite(t *testing.T) {
	suite.Run(t, new(TestSuiteStandard))
}

func (suite *TestSuiteStandard) SetupTest() {
	err := models.Connect(test.TmpFile(suite.T()))
	if err != nil {
		log.Fatalf("Database connection failed with: %#v", err)
	}
}

func (suite *TestSuiteStandard) TearDownTest() {
	sqlDB, _ := models.DB.DB()
	sqlDB.Close()
}

func (suite *TestSuiteStandard) createEngine() *engine.Engine {
	return engine.New(lease.NewTable(), engine.DefaultOptions())
}

func (suite *TestSuiteStandard) mustCreate(value any) {
	if err := models.DB.Create(value).Error; err != nil {
		suite.Assert().FailNow("Resource could not be saved", "Error: %s, Resource: %#v", err, value)
	}
}

// groceries books six months of varying grocery expenses, enough
// history that the data quality is not scored as poor.
func (suite *TestSuiteStandard) groceries(userID uuid.UUID, accountID uuid.UUID) {
	amounts := []int64{-95, -140, -80, -120, -105, -90}

	firstOfMonth := types.MonthOf(time.Now()).FirstDay()
	for i, amount := range amounts {
		suite.mustCreate(&models.Transaction{
			UserID:    userID,
			AccountID: accountID,
			Merchant:  "Supermarkt Geldwijs",
			Amount:    decimal.NewFromInt(amount),
			Date:      firstOfMonth.AddDate(0, -i, 3),
		})
	}
}

func (suite *TestSuiteStandard) TestGenerateRequiresUserID() {
	_, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{})

	suite.Require().NotNil(err)
	suite.Assert().Equal(recovery.ClassValidation, recovery.Classify(err))
}

func (suite *TestSuiteStandard) TestGenerateRejectsNegativeLimits() {
	_, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             uuid.New(),
		MaxRecommendations: -1,
	})

	suite.Require().NotNil(err)
	suite.Assert().Equal(recovery.ClassValidation, recovery.Classify(err))
}

func (suite *TestSuiteStandard) TestGenerateUnknownUser() {
	_, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{UserID: uuid.New()})

	suite.Require().NotNil(err)
	suite.Assert().Equal(recovery.ClassValidation, recovery.Classify(err))
	suite.Assert().Contains(err.Error(), "no accounts found")
}

// A user with a single account and almost no history gets the
// conservative fallback, and since there is no savings account to
// transfer to, the recommendation is an advisory on the account itself.
func (suite *TestSuiteStandard) TestGeneratePoorDataAdvisory() {
	userID := uuid.New()

	income := models.Account{
		UserID:  userID,
		Name:    "Inkomensrekening",
		Role:    models.AccountRoleIncome,
		Balance: decimal.NewFromInt(5000),
	}
	suite.mustCreate(&income)

	suite.mustCreate(&models.Transaction{
		UserID:    userID,
		AccountID: income.ID,
		Amount:    decimal.NewFromInt(4000),
		IsIncome:  true,
		Date:      time.Now().AddDate(0, 0, -20),
	})
	suite.mustCreate(&models.Transaction{
		UserID:    userID,
		AccountID: income.ID,
		Merchant:  "Supermarkt Geldwijs",
		Amount:    decimal.NewFromInt(-800),
		Date:      time.Now().AddDate(0, 0, -15),
	})

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{UserID: userID})

	suite.Require().Nil(err)
	suite.Assert().True(response.Success)
	suite.Assert().Equal(engine.QualityPoor, response.Metadata.DataQuality)
	suite.Assert().Equal(engine.StrategyFallback, response.Metadata.RecommendationStrategy)
	suite.Assert().True(response.Metadata.ValidationPassed)

	// The allocation is computed even on the fallback path.
	suite.Assert().True(response.Allocation.BufferAllocation.IsPositive())

	suite.Require().Len(response.Recommendations, 1)
	advisory := response.Recommendations[0]
	suite.Assert().Equal(models.KindAdvisory, advisory.Kind)
	suite.Assert().Equal(advisory.FromAccountID, advisory.ToAccountID)
	suite.Assert().Equal(income.ID, advisory.FromAccountID)
	suite.Assert().Contains(advisory.Purpose, "emergency fund")
	suite.Assert().Equal(1, response.Summary.AdvisoryCount)
	suite.Assert().Equal(0, response.Summary.TransferCount)

	// The advisory is persisted as the pending set.
	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Require().Len(pending, 1)
	suite.Assert().Equal(models.KindAdvisory, pending[0].Kind)
}

// intelligentFixture sets up a user with three accounts, history and an
// incomplete goal linked to its own account.
func (suite *TestSuiteStandard) intelligentFixture() (uuid.UUID, models.Account, models.Goal) {
	userID := uuid.New()

	checking := models.Account{
		UserID:  userID,
		Name:    "Betaalrekening",
		Role:    models.AccountRoleChecking,
		Balance: decimal.NewFromInt(3000),
	}
	suite.mustCreate(&checking)

	savings := models.Account{
		UserID:  userID,
		Name:    "Spaarrekening",
		Role:    models.AccountRoleSavings,
		Balance: decimal.NewFromInt(5000),
	}
	suite.mustCreate(&savings)

	holidayAccount := models.Account{
		UserID: userID,
		Name:   "Vakantiepot",
		Role:   models.AccountRoleGoal,
	}
	suite.mustCreate(&holidayAccount)

	goal := models.Goal{
		UserID:          userID,
		Name:            "Holiday Fund",
		TargetAmount:    decimal.NewFromInt(3000),
		CurrentAmount:   decimal.NewFromInt(500),
		LinkedAccountID: &holidayAccount.ID,
	}
	suite.mustCreate(&goal)

	suite.groceries(userID, checking.ID)

	return userID, holidayAccount, goal
}

func (suite *TestSuiteStandard) TestGenerateIntelligentGoalFunding() {
	userID, holidayAccount, goal := suite.intelligentFixture()

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             userID,
		IncludeIntelligent: true,
	})

	suite.Require().Nil(err)
	suite.Assert().True(response.Success)
	suite.Assert().Equal(engine.StrategyIntelligent, response.Metadata.RecommendationStrategy)

	var funding *models.TransferRecommendation
	for i := range response.Recommendations {
		if response.Recommendations[i].GoalID != nil {
			funding = &response.Recommendations[i]
			break
		}
	}

	suite.Require().NotNil(funding, "no goal funding recommendation generated")
	suite.Assert().Equal(models.KindTransfer, funding.Kind)
	suite.Assert().Equal(goal.ID, *funding.GoalID)
	suite.Assert().Equal(holidayAccount.ID, funding.ToAccountID)
	suite.Assert().True(funding.Amount.LessThanOrEqual(goal.Remaining()),
		"funding %s exceeds the remaining goal amount %s", funding.Amount, goal.Remaining())
	suite.Assert().True(funding.Amount.IsPositive())
}

// A healthy intelligent run that finds nothing to recommend keeps the
// intelligent strategy and an empty set, it is not downgraded to the
// fallback.
func (suite *TestSuiteStandard) TestGenerateIntelligentEmptyRunKeepsStrategy() {
	userID := uuid.New()

	checking := models.Account{
		UserID:  userID,
		Name:    "Betaalrekening",
		Role:    models.AccountRoleChecking,
		Balance: decimal.NewFromInt(400),
	}
	suite.mustCreate(&checking)

	// Twenty one-off expenses at distinct merchants, nothing recurs.
	for i := 0; i < 20; i++ {
		suite.mustCreate(&models.Transaction{
			UserID:    userID,
			AccountID: checking.ID,
			Merchant:  fmt.Sprintf("Winkel %d", i),
			Amount:    decimal.NewFromInt(-int64(30 + i)),
			Date:      time.Now().AddDate(0, 0, -2*i-1),
		})
	}

	for _, name := range []string{"Nieuwe fiets", "Laptop", "Meubels"} {
		suite.mustCreate(&models.Goal{
			UserID:       userID,
			Name:         name,
			TargetAmount: decimal.NewFromInt(1000),
		})
	}

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             userID,
		IncludeIntelligent: true,
	})

	suite.Require().Nil(err)
	suite.Assert().True(response.Success)
	suite.Assert().Equal(engine.QualityFair, response.Metadata.DataQuality)
	suite.Assert().Equal(engine.StrategyIntelligent, response.Metadata.RecommendationStrategy)
	suite.Assert().Empty(response.Recommendations)
	suite.Assert().Empty(response.Warnings)
	suite.Assert().Empty(response.Errors)
}

// Two consecutive runs over unchanged data produce the same
// recommendation amounts, and the second run supersedes the first set.
func (suite *TestSuiteStandard) TestGenerateIdempotent() {
	userID, _, _ := suite.intelligentFixture()
	request := engine.Request{UserID: userID, IncludeIntelligent: true}

	first, err := suite.createEngine().GenerateRecommendations(context.Background(), request)
	suite.Require().Nil(err)

	second, err := suite.createEngine().GenerateRecommendations(context.Background(), request)
	suite.Require().Nil(err)

	suite.Require().Equal(len(first.Recommendations), len(second.Recommendations))
	suite.Assert().True(first.Summary.TotalAmount.Equal(second.Summary.TotalAmount),
		"totals differ: %s vs %s", first.Summary.TotalAmount, second.Summary.TotalAmount)

	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Assert().Len(pending, len(second.Recommendations))
}

func (suite *TestSuiteStandard) TestGenerateBusyWithoutWaiting() {
	userID := uuid.New()

	table := lease.NewTable()
	opts := engine.DefaultOptions()
	opts.WaitForLease = false
	e := engine.New(table, opts)

	release, err := table.TryAcquire(userID)
	suite.Require().Nil(err)
	defer release()

	_, err = e.GenerateRecommendations(context.Background(), engine.Request{UserID: userID})
	suite.Assert().ErrorIs(err, lease.ErrBusy)
}

// Concurrent runs for the same user serialize on the lease, both
// complete and exactly one pending set remains.
func (suite *TestSuiteStandard) TestGenerateConcurrentRunsSerialize() {
	userID, _, _ := suite.intelligentFixture()

	table := lease.NewTable()
	e := engine.New(table, engine.DefaultOptions())
	request := engine.Request{UserID: userID, IncludeIntelligent: true}

	var wg sync.WaitGroup
	results := make([]*engine.Response, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = e.GenerateRecommendations(context.Background(), request)
		}()
	}
	wg.Wait()

	suite.Require().Nil(errs[0])
	suite.Require().Nil(errs[1])
	suite.Assert().True(results[0].Success)
	suite.Assert().True(results[1].Success)

	pending, err := models.PendingRecommendations(userID)
	suite.Require().Nil(err)
	suite.Assert().Len(pending, len(results[0].Recommendations))
}

func (suite *TestSuiteStandard) TestGenerateRespectsMaxRecommendations() {
	userID, _, _ := suite.intelligentFixture()

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             userID,
		IncludeIntelligent: true,
		MaxRecommendations: 1,
	})

	suite.Require().Nil(err)
	suite.Assert().Len(response.Recommendations, 1)
}

func (suite *TestSuiteStandard) TestGenerateMinTransferAmountFiltersTransfers() {
	userID, _, _ := suite.intelligentFixture()

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             userID,
		IncludeIntelligent: true,
		MinTransferAmount:  decimal.NewFromInt(100000),
	})

	suite.Require().Nil(err)
	for _, r := range response.Recommendations {
		suite.Assert().Equal(models.KindAdvisory, r.Kind,
			"transfer %s below the minimum slipped through", r.Amount)
	}
}

// The summary carries the predicted expense timeline and the funding
// schedule derived from the detected patterns.
func (suite *TestSuiteStandard) TestGenerateSummaryCarriesSchedule() {
	userID, _, _ := suite.intelligentFixture()

	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{
		UserID:             userID,
		IncludeIntelligent: true,
	})
	suite.Require().Nil(err)

	suite.Require().NotEmpty(response.Summary.UpcomingExpenses)
	suite.Assert().Contains(response.Summary.UpcomingExpenses[0].MerchantKey, "supermarkt")
	suite.Assert().True(response.Summary.UpcomingExpenses[0].Amount.IsPositive())

	suite.Require().NotEmpty(response.Summary.PlannedTransfers)
	recurring := response.Summary.PlannedTransfers[0]
	suite.Assert().True(recurring.Recurring)
	suite.Assert().True(recurring.Amount.IsPositive())
	suite.Assert().Contains(recurring.Purpose, "vaste lasten")
}

func (suite *TestSuiteStandard) TestGenerateResponseMetadata() {
	userID, _, _ := suite.intelligentFixture()

	before := time.Now().In(time.UTC)
	response, err := suite.createEngine().GenerateRecommendations(context.Background(), engine.Request{UserID: userID})
	suite.Require().Nil(err)

	suite.Assert().NotEmpty(response.Metadata.EngineVersion)
	suite.Assert().False(response.Metadata.GeneratedAt.Before(before.Add(-time.Second)))
	suite.Assert().GreaterOrEqual(response.Metadata.ProcessingTime, time.Duration(0))
	suite.Assert().Equal(len(response.Warnings), response.Metadata.WarningCount)
	suite.Assert().Equal(len(response.Errors), response.Metadata.ErrorCount)
}
