package bigquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledgerline/internal/domain"
)

const (
	datasetID         = "finance"
	transactionsTable = "transactions"
)

// ErrNotFound is returned when no transaction exists for the given ID.
var ErrNotFound = errors.New("transaction not found")

// InsertTransactionWithClient inserts a single row into finance.transactions
// using the provided BigQuery client.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, row *TransactionRow) error {
	table := client.Dataset(datasetID).Table(transactionsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, []*TransactionRow{row}); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

const transactionColumns = `
	transaction_id,
	amount,
	description,
	transaction_date,
	category,
	type,
	source,
	provenance_service,
	provenance_external_id,
	provenance_merchant,
	provenance_external_ts,
	provenance_extra,
	created_ts,
	updated_ts
`

// ListTransactionsWithClient returns all transactions, newest date first,
// using the provided BigQuery client.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client) ([]*TransactionRow, error) {
	q := client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + datasetID + `.` + transactionsTable + `
		ORDER BY transaction_date DESC, created_ts DESC
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// GetTransactionWithClient fetches a single transaction by ID using the
// provided BigQuery client. Returns ErrNotFound when no row matches.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, id string) (*TransactionRow, error) {
	q := client.Query(`
		SELECT ` + transactionColumns + `
		FROM ` + datasetID + `.` + transactionsTable + `
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: query read: %w", err)
	}

	var r TransactionRow
	err = it.Next(&r)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetTransaction: id %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: iter next: %w", err)
	}

	return &r, nil
}

// UpdateTransactionWithClient applies the non-nil fields of upd to the row
// with the given ID using the provided BigQuery client. Returns ErrNotFound
// when the row does not exist.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, id string, upd domain.TransactionUpdate) error {
	// Existence check first so a missing row surfaces as ErrNotFound rather
	// than a silent zero-row DML.
	if _, err := GetTransactionWithClient(ctx, client, id); err != nil {
		return err
	}

	var (
		sets   []string
		params = []bigquery.QueryParameter{{Name: "transaction_id", Value: id}}
	)
	if upd.Amount != nil {
		sets = append(sets, "amount = @amount")
		params = append(params, bigquery.QueryParameter{Name: "amount", Value: new(big.Rat).SetFloat64(*upd.Amount)})
	}
	if upd.Description != nil {
		sets = append(sets, "description = @description")
		params = append(params, bigquery.QueryParameter{Name: "description", Value: *upd.Description})
	}
	if upd.Date != nil {
		sets = append(sets, "transaction_date = @transaction_date")
		params = append(params, bigquery.QueryParameter{Name: "transaction_date", Value: upd.Date.String()})
	}
	if upd.Category != nil {
		sets = append(sets, "category = @category")
		params = append(params, bigquery.QueryParameter{Name: "category", Value: *upd.Category})
	}
	if upd.Type != nil {
		sets = append(sets, "type = @type")
		params = append(params, bigquery.QueryParameter{Name: "type", Value: *upd.Type})
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_ts = @updated_ts")
	params = append(params, bigquery.QueryParameter{Name: "updated_ts", Value: time.Now()})

	q := client.Query(`
		UPDATE ` + datasetID + `.` + transactionsTable + `
		SET ` + strings.Join(sets, ", ") + `
		WHERE transaction_id = @transaction_id
	`)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateTransaction: job error: %w", err)
	}

	return nil
}

// DeleteTransactionWithClient removes the row with the given ID using the
// provided BigQuery client. Returns ErrNotFound when the row does not exist.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, id string) error {
	if _, err := GetTransactionWithClient(ctx, client, id); err != nil {
		return err
	}

	q := client.Query(`
		DELETE FROM ` + datasetID + `.` + transactionsTable + `
		WHERE transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("DeleteTransaction: job error: %w", err)
	}

	return nil
}
