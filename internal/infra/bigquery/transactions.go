// Package bigquery implements the transaction store on BigQuery.
package bigquery

import (
	"encoding/json"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledgerline/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	Amount      *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	Description string     `bigquery:"description"`      // REQUIRED STRING
	Date        civil.Date `bigquery:"transaction_date"` // REQUIRED DATE

	Category string `bigquery:"category"` // REQUIRED STRING
	Type     string `bigquery:"type"`     // REQUIRED STRING ("income"|"expense")

	Source bigquery.NullString `bigquery:"source"` // NULLABLE ("manual"|"sms"|"webhook")

	ProvenanceService     bigquery.NullString `bigquery:"provenance_service"`      // NULLABLE
	ProvenanceExternalID  bigquery.NullString `bigquery:"provenance_external_id"`  // NULLABLE
	ProvenanceMerchant    bigquery.NullString `bigquery:"provenance_merchant"`     // NULLABLE
	ProvenanceExternalTS  bigquery.NullString `bigquery:"provenance_external_ts"`  // NULLABLE
	ProvenanceExtra       bigquery.NullJSON   `bigquery:"provenance_extra"`        // NULLABLE JSON

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func rowFromTransaction(tx *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: tx.ID,
		Amount:        new(big.Rat).SetFloat64(tx.Amount),
		Description:   tx.Description,
		Date:          tx.Date,
		Category:      string(tx.Category),
		Type:          string(tx.Type),
		CreatedTS:     tx.CreatedAt,
	}
	if tx.Source != "" {
		row.Source = bigquery.NullString{StringVal: tx.Source, Valid: true}
	}
	if p := tx.Provenance; p != nil {
		row.ProvenanceService = bigquery.NullString{StringVal: p.Service, Valid: true}
		row.ProvenanceExternalID = bigquery.NullString{StringVal: p.ExternalID, Valid: true}
		row.ProvenanceMerchant = bigquery.NullString{StringVal: p.Merchant, Valid: true}
		row.ProvenanceExternalTS = bigquery.NullString{StringVal: p.ExternalTimestamp, Valid: true}
		if len(p.Extra) > 0 {
			b, _ := json.Marshal(p.Extra)
			row.ProvenanceExtra = bigquery.NullJSON{JSONVal: string(b), Valid: true}
		}
	}
	return row
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	tx := &domain.Transaction{
		ID:          r.TransactionID,
		Description: r.Description,
		Date:        r.Date,
		Category:    domain.Category(r.Category),
		Type:        domain.TransactionType(r.Type),
		CreatedAt:   r.CreatedTS,
	}
	if r.Amount != nil {
		tx.Amount, _ = r.Amount.Float64()
	}
	if r.Source.Valid {
		tx.Source = r.Source.StringVal
	}
	if r.ProvenanceService.Valid {
		tx.Provenance = &domain.Provenance{
			Service:           r.ProvenanceService.StringVal,
			ExternalID:        r.ProvenanceExternalID.StringVal,
			Merchant:          r.ProvenanceMerchant.StringVal,
			ExternalTimestamp: r.ProvenanceExternalTS.StringVal,
			Extra:             extraMap(r.ProvenanceExtra),
		}
	}
	return tx
}

// extraMap converts the JSON column back to a string map. The JSON value may
// hold non-string members; only string values are kept.
func extraMap(v bigquery.NullJSON) map[string]string {
	if !v.Valid {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(v.JSONVal), &m); err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
