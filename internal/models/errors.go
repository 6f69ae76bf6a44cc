package models

import "errors"

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no resource for the specified ID")

	ErrAccountRoleInvalid = errors.New("the account role is not valid")

	ErrGoalAmountNotPositive = errors.New("goal target amounts must be larger than zero")

	ErrPreferenceTypeInvalid     = errors.New("the allocation type is not valid")
	ErrPreferenceSelectorMissing = errors.New("a transfer preference needs exactly one of account ID, account role or goal pattern")

	ErrRecommendationAmountNotPositive = errors.New("recommendation amounts must be larger than zero")
	ErrRecommendationSameAccount       = errors.New("source and destination accounts for a transfer recommendation must be different")
	ErrRecommendationAdvisoryAccounts  = errors.New("advisory recommendations must reference a single account")
)
