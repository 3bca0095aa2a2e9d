// Package domain defines the canonical transaction shapes shared by the
// extraction core, the HTTP handlers and the persistence layer.
package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Category is one label from the fixed reporting vocabulary.
type Category string

const (
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryShopping  Category = "Shopping"
	CategoryBills     Category = "Bills"
	CategoryOthers    Category = "Others"
	// CategoryTransfer is reserved for service-originated transfers.
	CategoryTransfer Category = "Transfer"
)

// Categories lists the full closed vocabulary in declaration order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryBills,
		CategoryOthers,
		CategoryTransfer,
	}
}

// ValidCategory reports whether name is one of the closed category labels.
func ValidCategory(name string) bool {
	for _, c := range Categories() {
		if string(c) == name {
			return true
		}
	}
	return false
}

// Provenance records the external origin of a webhook-sourced transaction.
// It is attached verbatim and never interpreted by core logic.
type Provenance struct {
	Service           string            `json:"service"`
	ExternalID        string            `json:"external_id"`
	Merchant          string            `json:"merchant"`
	ExternalTimestamp string            `json:"external_timestamp"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Transaction is the normalized, storage-ready record produced regardless of
// origin (manual entry, SMS or webhook). The ID and CreatedAt fields are
// assigned by the persistence layer, not by the extraction core.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Date        civil.Date      `json:"date"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Source      string          `json:"source,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Provenance  *Provenance     `json:"provenance,omitempty"`
}

// TransactionUpdate carries a partial update; nil fields are left unchanged.
type TransactionUpdate struct {
	Amount      *float64    `json:"amount"`
	Description *string     `json:"description"`
	Date        *civil.Date `json:"date"`
	Category    *string     `json:"category"`
	Type        *string     `json:"type"`
}

// Empty reports whether the update carries no fields at all.
func (u TransactionUpdate) Empty() bool {
	return u.Amount == nil && u.Description == nil && u.Date == nil &&
		u.Category == nil && u.Type == nil
}

// Candidate is the output of a successful SMS extraction attempt. It is
// constructed once per extraction and either handed to the persistence layer
// or discarded.
type Candidate struct {
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Date        civil.Date      `json:"date"`
	Source      string          `json:"source"`
}

// Transaction converts the candidate into a canonical transaction. The
// persistence layer fills in ID and CreatedAt.
func (c Candidate) Transaction() Transaction {
	return Transaction{
		Amount:      c.Amount,
		Description: c.Description,
		Date:        c.Date,
		Category:    c.Category,
		Type:        c.Type,
		Source:      c.Source,
	}
}
