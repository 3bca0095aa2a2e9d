// Package webhook maps structured third-party payment notifications into
// canonical transactions using a static service profile table.
package webhook

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// ErrUnsupportedService is returned when the payload names a service that is
// not in the profile table. Callers should surface it as a client input
// error, not a server fault.
var ErrUnsupportedService = errors.New("unsupported service")

// ServiceProfile describes one known payment provider. SiteURL and Color are
// presentational metadata for clients and play no part in mapping logic.
type ServiceProfile struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"display_name"`
	Category    domain.Category `json:"category"`
	SiteURL     string          `json:"site_url"`
	Color       string          `json:"color"`
}

// DefaultProfiles returns the built-in provider table.
func DefaultProfiles() []ServiceProfile {
	return []ServiceProfile{
		{Key: "zomato", DisplayName: "Zomato", Category: domain.CategoryFood, SiteURL: "https://www.zomato.com", Color: "#E23744"},
		{Key: "swiggy", DisplayName: "Swiggy", Category: domain.CategoryFood, SiteURL: "https://www.swiggy.com", Color: "#FC8019"},
		{Key: "uber", DisplayName: "Uber", Category: domain.CategoryTransport, SiteURL: "https://www.uber.com", Color: "#000000"},
	}
}

// Payload is the structured webhook body pushed by a payment service. The
// Metadata map is opaque and passed through as provenance only.
type Payload struct {
	Service           string            `json:"service"`
	Amount            float64           `json:"amount"`
	Merchant          string            `json:"merchant"`
	ExternalID        string            `json:"transaction_id"`
	ExternalTimestamp string            `json:"timestamp"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Normalizer converts webhook payloads using an immutable profile table. Safe
// for concurrent use.
type Normalizer struct {
	profiles map[string]ServiceProfile
}

// NewNormalizer builds a normalizer over the given profiles.
func NewNormalizer(profiles []ServiceProfile) *Normalizer {
	m := make(map[string]ServiceProfile, len(profiles))
	for _, p := range profiles {
		m[p.Key] = p
	}
	return &Normalizer{profiles: m}
}

// Profile looks up a service profile by key.
func (n *Normalizer) Profile(service string) (ServiceProfile, bool) {
	p, ok := n.profiles[service]
	return p, ok
}

// Normalize maps the payload into a canonical transaction. The transaction
// date is the current calendar date; the external timestamp is kept only in
// the provenance block. Unknown services yield ErrUnsupportedService.
func (n *Normalizer) Normalize(p Payload) (domain.Transaction, error) {
	profile, ok := n.profiles[p.Service]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("Normalize: service %q: %w", p.Service, ErrUnsupportedService)
	}

	return domain.Transaction{
		Amount:      p.Amount,
		Description: fmt.Sprintf("%s payment to %s", profile.DisplayName, p.Merchant),
		Date:        civil.DateOf(time.Now()),
		Category:    profile.Category,
		Type:        domain.TypeExpense,
		Source:      "webhook",
		Provenance: &domain.Provenance{
			Service:           p.Service,
			ExternalID:        p.ExternalID,
			Merchant:          p.Merchant,
			ExternalTimestamp: p.ExternalTimestamp,
			Extra:             p.Metadata,
		},
	}, nil
}
