// Package categorize buckets merchant names into the closed category
// vocabulary using an ordered keyword rule table.
package categorize

import (
	"strings"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// Rule pairs a category with the lowercase keyword substrings that select it.
type Rule struct {
	Category domain.Category
	Keywords []string
}

// DefaultRules returns the built-in rule table. Order is significant: the
// first rule with a matching keyword wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: domain.CategoryFood,
			Keywords: []string{"swiggy", "zomato", "uber eats", "dominos", "pizza", "restaurant", "cafe", "food", "kitchen", "biryani"},
		},
		{
			Category: domain.CategoryTransport,
			Keywords: []string{"uber", "ola", "rapido", "metro", "bus", "taxi", "petrol", "fuel"},
		},
		{
			Category: domain.CategoryShopping,
			Keywords: []string{"amazon", "flipkart", "myntra", "ajio", "shopping", "mall", "store"},
		},
		{
			Category: domain.CategoryBills,
			Keywords: []string{"electricity", "water", "gas", "internet", "mobile", "recharge", "bill"},
		},
	}
}

// Categorizer evaluates the rule table in declared order. It is immutable
// after construction and safe for concurrent use.
type Categorizer struct {
	rules []Rule
}

// New creates a categorizer over the given ordered rules.
func New(rules []Rule) *Categorizer {
	return &Categorizer{rules: rules}
}

// Categorize returns the category of the first rule with a keyword occurring
// as a substring of the lower-cased merchant, or Others when nothing matches.
// It never fails.
func (c *Categorizer) Categorize(merchant string) domain.Category {
	lower := strings.ToLower(merchant)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return domain.CategoryOthers
}
