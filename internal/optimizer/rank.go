package optimizer

import (
	"regexp"
	"strings"
	"time"

	"github.com/geldwijs/backend/internal/models"
	"golang.org/x/exp/slices"
)

// Score combines the impact estimate, confidence, the per-type weight
// and a small bonus for larger amounts.
func Score(c Candidate) float64 {
	impact := 10*c.Impact.SavingsRate + 5*c.Impact.RiskReduction - 3*c.Impact.OpportunityCost

	amount, _ := c.Amount.Float64()
	amountBonus := amount / 1000
	if amountBonus > 2 {
		amountBonus = 2
	}

	return impact*c.Confidence + typeWeights[c.Type] + amountBonus
}

// Rank sorts candidates by urgency, then priority, then score, all
// descending. The sort is stable so equally ranked candidates keep
// their generation order.
func Rank(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if d := b.Urgency.Rank() - a.Urgency.Rank(); d != 0 {
			return d
		}
		if d := b.Priority.Rank() - a.Priority.Rank(); d != 0 {
			return d
		}

		switch {
		case b.Score > a.Score:
			return 1
		case b.Score < a.Score:
			return -1
		default:
			return 0
		}
	})
}

type scoredGoal struct {
	goal  models.Goal
	score float64
}

// goalCategoryWeights bias funding towards safety and long-term goals.
var goalCategoryWeights = []struct {
	keywords []string
	weight   float64
}{
	{[]string{"emergency", "noodfonds"}, 0.4},
	{[]string{"house", "home", "huis", "woning"}, 0.3},
	{[]string{"retirement", "pensioen", "fire"}, 0.2},
	{[]string{"vacation", "vakantie", "holiday"}, 0.1},
}

// scoreGoals scores incomplete goals by target-date urgency, progress,
// name category and preference match, best first.
func scoreGoals(goals []models.Goal, preferences []models.TransferPreference, now time.Time) []scoredGoal {
	scored := make([]scoredGoal, 0, len(goals))

	for _, g := range goals {
		if g.Completed || !g.Remaining().IsPositive() {
			continue
		}

		s := 0.0

		if g.TargetDate != nil {
			until := g.TargetDate.Sub(now)
			if until <= 365*24*time.Hour {
				s += 0.3
			}
			if until <= 182*24*time.Hour {
				s += 0.2
			}
		}

		switch progress := g.Progress(); {
		case progress > 0.8:
			s += 0.2
		case progress > 0.5:
			s += 0.1
		}

		name := strings.ToLower(g.Name)
		for _, category := range goalCategoryWeights {
			if containsAny(name, category.keywords) {
				s += category.weight
				break
			}
		}

		s += preferenceBonus(g, preferences)

		scored = append(scored, scoredGoal{goal: g, score: s})
	}

	slices.SortStableFunc(scored, func(a, b scoredGoal) int {
		switch {
		case b.score > a.score:
			return 1
		case b.score < a.score:
			return -1
		default:
			return 0
		}
	})

	return scored
}

// preferenceBonus rewards goals the user explicitly routed money to
// via a goal-pattern preference. Invalid patterns are ignored here,
// the destination resolver reports them.
func preferenceBonus(g models.Goal, preferences []models.TransferPreference) float64 {
	for _, p := range preferences {
		if !p.Active || p.Type != models.AllocationGoal || p.GoalPattern == "" {
			continue
		}

		re, err := regexp.Compile("(?i)" + p.GoalPattern)
		if err != nil {
			continue
		}
		if re.MatchString(g.Name) {
			return 0.2
		}
	}
	return 0
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
