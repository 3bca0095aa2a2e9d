package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleSpec declares a bank matching rule before compilation. Pattern must
// contain exactly two capture groups: group 1 is the amount, group 2 the raw
// merchant fragment. Matching is case-insensitive.
type RuleSpec struct {
	Bank    string
	Pattern string
}

// PatternRule is a compiled, immutable matching rule.
type PatternRule struct {
	Bank string
	re   *regexp.Regexp
}

// Match runs the rule against the full message. It returns the raw amount
// string and merchant fragment from the two capture groups.
func (r PatternRule) Match(message string) (amount, merchant string, ok bool) {
	m := r.re.FindStringSubmatch(message)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Registry is an immutable, declaration-ordered table of bank rules plus a
// generic fallback. It is built once at startup and safe for concurrent use.
type Registry struct {
	rules    []PatternRule
	fallback PatternRule
}

// NewRegistry compiles the rule table. Every pattern, including the fallback,
// must define exactly two capture groups or the registry is rejected.
func NewRegistry(specs []RuleSpec, fallback string) (*Registry, error) {
	compile := func(bank, pattern string) (PatternRule, error) {
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return PatternRule{}, fmt.Errorf("NewRegistry: rule %q: %w", bank, err)
		}
		if n := re.NumSubexp(); n != 2 {
			return PatternRule{}, fmt.Errorf("NewRegistry: rule %q has %d capture groups, want 2", bank, n)
		}
		return PatternRule{Bank: bank, re: re}, nil
	}

	reg := &Registry{rules: make([]PatternRule, 0, len(specs))}
	for _, s := range specs {
		rule, err := compile(s.Bank, s.Pattern)
		if err != nil {
			return nil, err
		}
		reg.rules = append(reg.rules, rule)
	}

	fb, err := compile("generic", fallback)
	if err != nil {
		return nil, err
	}
	reg.fallback = fb

	return reg, nil
}

// MustRegistry is like NewRegistry but panics on an invalid table. Intended
// for the built-in rule set, where a bad pattern is a programming error.
func MustRegistry(specs []RuleSpec, fallback string) *Registry {
	reg, err := NewRegistry(specs, fallback)
	if err != nil {
		panic(err)
	}
	return reg
}

// Rules returns the ordered pattern sequence to try for the given sender:
// every bank rule whose key is a case-insensitive substring of the sender, in
// declaration order, with the generic fallback appended last. An empty sender
// yields only the fallback. Rules never fails.
func (r *Registry) Rules(sender string) []PatternRule {
	if sender == "" {
		return []PatternRule{r.fallback}
	}

	lower := strings.ToLower(sender)
	out := make([]PatternRule, 0, len(r.rules)+1)
	for _, rule := range r.rules {
		if strings.Contains(lower, strings.ToLower(rule.Bank)) {
			out = append(out, rule)
		}
	}
	return append(out, r.fallback)
}

// amountGroup matches a decimal amount with optional thousands separators.
const amountGroup = `([\d,]+(?:\.\d+)?)`

// merchantGroup captures the merchant fragment up to the next "on", "UPI",
// "Card", a period, or end of message.
const merchantGroup = `(.+?)(?:\s+on\b|\s+upi\b|\s+card\b|\.|$)`

// DefaultRegistry returns the built-in bank rule table. The table is ordered;
// sender lookup preserves this order.
func DefaultRegistry() *Registry {
	return MustRegistry([]RuleSpec{
		{Bank: "hdfc", Pattern: `(?:rs\.?|inr)\s*` + amountGroup + `\s+(?:is\s+)?debited\s+(?:from\s+\S+\s+)?(?:at|to|for)\s+` + merchantGroup},
		{Bank: "icici", Pattern: `inr\s*` + amountGroup + `\s+spent\s+(?:on\s+\S+\s+\S+\s+)?at\s+` + merchantGroup},
		{Bank: "sbi", Pattern: `rs\.?\s*` + amountGroup + `\s+debited\s+from\s+.+?\s+to\s+(?:vpa\s+)?` + merchantGroup},
		{Bank: "axis", Pattern: `inr\s*` + amountGroup + `\s+(?:spent|paid)\s+(?:at|to)\s+` + merchantGroup},
		{Bank: "kotak", Pattern: `rs\.?\s*` + amountGroup + `\s+paid\s+(?:to|at)\s+` + merchantGroup},
	},
		// Broad catch-all: currency prefix, a debit verb, a preposition, then
		// the merchant fragment.
		`(?:rs\.?|inr)\s*`+amountGroup+`\s+(?:spent|debited|paid)\s+(?:at|on|to)\s+`+merchantGroup,
	)
}
