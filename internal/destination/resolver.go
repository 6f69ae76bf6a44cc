// Package destination resolves allocation intents to concrete accounts.
//
// Resolution is deterministic: a goal's linked account wins, then the
// user's active transfer preferences in priority order, then a fixed
// fallback hierarchy per allocation type. A nil result means no account
// qualifies and the caller has to fall back to an advisory.
package destination

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/geldwijs/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// Source records which resolution stage produced the destination.
type Source string

const (
	SourceAuto       Source = "auto"       // linked goal account
	SourcePreference Source = "preference" // user preference matched
	SourceFallback   Source = "fallback"   // fixed hierarchy
)

// Resolution is a resolved destination account.
type Resolution struct {
	AccountID  uuid.UUID
	Purpose    string
	Confidence float64
	Source     Source
}

// maxPatternLength bounds user-supplied goal patterns. Longer patterns
// are treated as invalid and skipped.
const maxPatternLength = 128

// Resolver resolves destinations for one user's context. It is built
// per request and not safe for concurrent use.
type Resolver struct {
	accounts    []models.Account
	goals       []models.Goal
	preferences []models.TransferPreference

	// Warnings collects non-fatal resolution problems, for example
	// invalid preference patterns.
	Warnings []string
}

// NewResolver returns a Resolver over the user's accounts, goals and
// transfer preferences. Preferences are re-sorted by ascending
// priority so resolution does not depend on the caller's ordering.
func NewResolver(accounts []models.Account, goals []models.Goal, preferences []models.TransferPreference) *Resolver {
	prefs := slices.Clone(preferences)
	slices.SortStableFunc(prefs, func(a, b models.TransferPreference) int {
		return a.Priority - b.Priority
	})

	return &Resolver{
		accounts:    accounts,
		goals:       goals,
		preferences: prefs,
	}
}

// Resolve maps an allocation type, and for goal allocations the goal,
// to a destination account. It returns nil when nothing resolves.
func (r *Resolver) Resolve(allocationType models.AllocationType, goalID *uuid.UUID) *Resolution {
	// A goal with a linked account needs no configuration.
	if allocationType == models.AllocationGoal && goalID != nil {
		if goal := r.goalByID(*goalID); goal != nil && goal.LinkedAccountID != nil {
			return &Resolution{
				AccountID:  *goal.LinkedAccountID,
				Purpose:    fmt.Sprintf("Funding goal %q", goal.Name),
				Confidence: 0.95,
				Source:     SourceAuto,
			}
		}
	}

	if resolution := r.fromPreferences(allocationType); resolution != nil {
		return resolution
	}

	return r.fromFallback(allocationType)
}

// fromPreferences scans the active preferences for the allocation type
// in priority order. The first preference that resolves wins.
func (r *Resolver) fromPreferences(allocationType models.AllocationType) *Resolution {
	for _, preference := range r.preferences {
		if !preference.Active || preference.Type != allocationType {
			continue
		}

		var account *models.Account
		switch {
		case preference.AccountID != nil:
			account = r.accountByID(*preference.AccountID)
		case preference.AccountRole != models.AccountRoleUnset:
			account = r.accountByRole(preference.AccountRole)
		case preference.GoalPattern != "":
			account = r.accountByGoalPattern(preference.GoalPattern)
		}

		if account != nil {
			return &Resolution{
				AccountID:  account.ID,
				Purpose:    fmt.Sprintf("Transfer to %s", account.Name),
				Confidence: 0.9,
				Source:     SourcePreference,
			}
		}
	}

	return nil
}

// accountByGoalPattern matches the user-supplied regex against goal
// names and returns the linked account of the first match. The pattern
// is untrusted: compilation failures are warnings, never fatal.
func (r *Resolver) accountByGoalPattern(pattern string) *models.Account {
	if len(pattern) > maxPatternLength {
		r.warn("goal pattern longer than %d characters skipped", maxPatternLength)
		return nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		r.warn("invalid goal pattern %q skipped: %v", pattern, err)
		return nil
	}

	for _, goal := range r.goals {
		if goal.LinkedAccountID == nil || !re.MatchString(goal.Name) {
			continue
		}
		if account := r.accountByID(*goal.LinkedAccountID); account != nil {
			return account
		}
	}

	return nil
}

// fromFallback applies the fixed per-type hierarchy.
func (r *Resolver) fromFallback(allocationType models.AllocationType) *Resolution {
	switch allocationType {
	case models.AllocationBuffer, models.AllocationEmergency:
		for _, role := range []models.AccountRole{
			models.AccountRoleEmergency,
			models.AccountRoleSavings,
			models.AccountRoleGoal,
		} {
			if account := r.accountByRole(role); account != nil {
				return &Resolution{
					AccountID:  account.ID,
					Purpose:    fmt.Sprintf("Transfer to %s", account.Name),
					Confidence: 0.7,
					Source:     SourceFallback,
				}
			}
		}

		// Last resort: an emergency goal with a linked account.
		for _, goal := range r.goals {
			if goal.LinkedAccountID == nil || !strings.Contains(strings.ToLower(goal.Name), "emergency") {
				continue
			}
			if account := r.accountByID(*goal.LinkedAccountID); account != nil {
				return &Resolution{
					AccountID:  account.ID,
					Purpose:    fmt.Sprintf("Transfer to emergency goal %q", goal.Name),
					Confidence: 0.6,
					Source:     SourceFallback,
				}
			}
		}

		return nil

	case models.AllocationInvestment:
		if account := r.accountByRole(models.AccountRoleInvestment); account != nil {
			return &Resolution{
				AccountID:  account.ID,
				Purpose:    fmt.Sprintf("Transfer to %s", account.Name),
				Confidence: 0.7,
				Source:     SourceFallback,
			}
		}
		if account := r.accountByRole(models.AccountRoleSavings); account != nil {
			return &Resolution{
				AccountID:  account.ID,
				Purpose:    fmt.Sprintf("Transfer to %s pending investment setup", account.Name),
				Confidence: 0.5,
				Source:     SourceFallback,
			}
		}
		return nil

	default:
		if account := r.accountByRole(models.AccountRoleSavings); account != nil {
			return &Resolution{
				AccountID:  account.ID,
				Purpose:    fmt.Sprintf("Transfer to %s", account.Name),
				Confidence: 0.7,
				Source:     SourceFallback,
			}
		}
		return nil
	}
}

func (r *Resolver) warn(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Warn().Msg(message)
	r.Warnings = append(r.Warnings, message)
}

func (r *Resolver) accountByID(id uuid.UUID) *models.Account {
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			return &r.accounts[i]
		}
	}
	return nil
}

func (r *Resolver) accountByRole(role models.AccountRole) *models.Account {
	for i := range r.accounts {
		if r.accounts[i].Role == role {
			return &r.accounts[i]
		}
	}
	return nil
}

func (r *Resolver) goalByID(id uuid.UUID) *models.Goal {
	for i := range r.goals {
		if r.goals[i].ID == id {
			return &r.goals[i]
		}
	}
	return nil
}
