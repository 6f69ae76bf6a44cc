package analyzer

import "strings"

// fixedExpenseKeywords mark transactions that typically belong to
// recurring obligations. Both Dutch and English terms are covered since
// bank statements mix the two.
var fixedExpenseKeywords = []string{
	"rent",
	"huur",
	"mortgage",
	"hypotheek",
	"insurance",
	"verzekering",
	"utilities",
	"energie",
	"electricity",
	"stroom",
	"gas",
	"water",
	"internet",
	"phone",
	"telefoon",
	"subscription",
	"abonnement",
	"gym",
	"sportschool",
	"belasting",
	"gemeente",
	"zorgverzekering",
	"premie",
}

// ContainsFixedExpenseKeyword reports whether the text contains one of
// the curated fixed-expense keywords.
func ContainsFixedExpenseKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range fixedExpenseKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
