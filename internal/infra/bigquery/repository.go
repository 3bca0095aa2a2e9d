package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// TransactionRepository is the persistence contract the handlers and the
// ingestion paths depend on. The store owns identifier and creation-timestamp
// assignment; extraction code never generates either.
type TransactionRepository interface {
	// Insert stores the transaction, assigning ID and CreatedAt when unset,
	// and returns the stored record.
	Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)

	// List returns all transactions, newest date first.
	List(ctx context.Context) ([]*domain.Transaction, error)

	// Get returns one transaction by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Transaction, error)

	// Update applies the non-nil fields of upd and returns the updated
	// record, or ErrNotFound.
	Update(ctx context.Context, id string, upd domain.TransactionUpdate) (*domain.Transaction, error)

	// Delete removes one transaction by ID, or ErrNotFound.
	Delete(ctx context.Context, id string) error

	Close() error
}

// BigQueryTransactionRepository is the concrete TransactionRepository backed
// by BigQuery. It holds a shared client to avoid creating a new connection
// for each operation.
type BigQueryTransactionRepository struct {
	client *bigquery.Client
}

// NewBigQueryTransactionRepository creates a repository with a shared
// BigQuery client for the given project.
func NewBigQueryTransactionRepository(ctx context.Context, projectID string) (*BigQueryTransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Insert implements TransactionRepository.
func (r *BigQueryTransactionRepository) Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	if err := InsertTransactionWithClient(ctx, r.client, rowFromTransaction(&stored)); err != nil {
		return nil, err
	}
	return &stored, nil
}

// List implements TransactionRepository.
func (r *BigQueryTransactionRepository) List(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := ListTransactionsWithClient(ctx, r.client)
	if err != nil {
		return nil, err
	}
	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}

// Get implements TransactionRepository.
func (r *BigQueryTransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := GetTransactionWithClient(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Update implements TransactionRepository.
func (r *BigQueryTransactionRepository) Update(ctx context.Context, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	if err := UpdateTransactionWithClient(ctx, r.client, id, upd); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete implements TransactionRepository.
func (r *BigQueryTransactionRepository) Delete(ctx context.Context, id string) error {
	return DeleteTransactionWithClient(ctx, r.client, id)
}

var _ TransactionRepository = (*BigQueryTransactionRepository)(nil)
