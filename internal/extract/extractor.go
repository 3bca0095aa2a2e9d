// Package extract converts free-text bank SMS notifications into transaction
// candidates using an ordered pattern registry, merchant normalization and
// keyword categorization. All matching uses Go's RE2 engine, so a crafted
// message cannot trigger super-linear matching time.
package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// Classifier assigns a category to a normalized merchant name. It is total:
// it always produces a category, falling back to Others.
type Classifier interface {
	Categorize(ctx context.Context, merchant string) domain.Category
}

// Extractor turns SMS text into transaction candidates. It is stateless apart
// from the immutable registry and safe for concurrent use.
type Extractor struct {
	registry   *Registry
	classifier Classifier
}

// NewExtractor creates an extractor over the given rule table and classifier.
func NewExtractor(registry *Registry, classifier Classifier) *Extractor {
	return &Extractor{registry: registry, classifier: classifier}
}

// Extract attempts to pull a transaction out of the message. The sender, when
// known, selects bank-specific rules to try before the generic fallback. The
// first matching pattern wins; a pattern whose amount group fails to parse is
// treated as a non-match and the next pattern is tried. A false second return
// means no pattern recognized the message, which is an expected outcome for
// unrecognized formats, not an error.
func (e *Extractor) Extract(ctx context.Context, message, sender string) (domain.Candidate, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Candidate{}, false
	}

	for _, rule := range e.registry.Rules(sender) {
		amountStr, rawMerchant, ok := rule.Match(message)
		if !ok {
			continue
		}

		amount, err := parseAmount(amountStr)
		if err != nil {
			// Malformed amount group: treat as a failed attempt for this
			// rule and keep going.
			continue
		}

		merchant := NormalizeMerchant(rawMerchant)
		category := e.classifier.Categorize(ctx, merchant)

		return domain.Candidate{
			Amount:      amount,
			Description: fmt.Sprintf("Payment to %s", merchant),
			Merchant:    merchant,
			Category:    category,
			Type:        domain.TypeExpense,
			Date:        civil.DateOf(time.Now()),
			Source:      "sms",
		}, true
	}

	return domain.Candidate{}, false
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parseAmount: %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("parseAmount: non-positive amount %q", s)
	}
	return v, nil
}
