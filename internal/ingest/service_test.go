package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/categorize"
	"github.com/dvloznov/ledgerline/internal/domain"
	"github.com/dvloznov/ledgerline/internal/extract"
	"github.com/dvloznov/ledgerline/internal/webhook"
)

// mockRepository records inserts for testing the ingestion paths
type mockRepository struct {
	inserted  []*domain.Transaction
	insertErr error
}

func (m *mockRepository) Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	stored := *tx
	stored.ID = fmt.Sprintf("tx-%d", len(m.inserted)+1)
	m.inserted = append(m.inserted, &stored)
	return &stored, nil
}

func (m *mockRepository) List(ctx context.Context) ([]*domain.Transaction, error) {
	return m.inserted, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRepository) Update(ctx context.Context, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func (m *mockRepository) Close() error { return nil }

// mockArchive records archived payloads and can be made to fail
type mockArchive struct {
	smsCount     int
	webhookCount int
	err          error
}

func (m *mockArchive) ArchiveSMS(ctx context.Context, message, sender string) (string, error) {
	m.smsCount++
	if m.err != nil {
		return "", m.err
	}
	return "gs://test/sms", nil
}

func (m *mockArchive) ArchiveWebhook(ctx context.Context, service string, payload []byte) (string, error) {
	m.webhookCount++
	if m.err != nil {
		return "", m.err
	}
	return "gs://test/webhook", nil
}

func newTestService(repo *mockRepository, arch *mockArchive) *Service {
	classifier := categorize.NewService(categorize.New(categorize.DefaultRules()), nil, zerolog.Nop())
	extractor := extract.NewExtractor(extract.DefaultRegistry(), classifier)
	normalizer := webhook.NewNormalizer(webhook.DefaultProfiles())
	return NewService(extractor, normalizer, repo, arch, zerolog.Nop())
}

func TestIngestSMS_Match(t *testing.T) {
	repo := &mockRepository{}
	arch := &mockArchive{}
	s := newTestService(repo, arch)

	tx, matched, err := s.IngestSMS(context.Background(), "Rs.450.00 debited at SWIGGY BANGALORE on 12-05-24", "HDFC-Bank")
	if err != nil {
		t.Fatalf("IngestSMS() error = %v", err)
	}
	if !matched {
		t.Fatal("IngestSMS() matched = false, want true")
	}
	if tx.ID == "" {
		t.Error("stored transaction has no ID")
	}
	if tx.Amount != 450 {
		t.Errorf("amount = %v, want 450", tx.Amount)
	}
	if tx.Category != domain.CategoryFood {
		t.Errorf("category = %q, want %q", tx.Category, domain.CategoryFood)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted %d transactions, want 1", len(repo.inserted))
	}
	if arch.smsCount != 1 {
		t.Errorf("archived %d SMS payloads, want 1", arch.smsCount)
	}
}

func TestIngestSMS_NoMatch(t *testing.T) {
	repo := &mockRepository{}
	arch := &mockArchive{}
	s := newTestService(repo, arch)

	tx, matched, err := s.IngestSMS(context.Background(), "Your OTP is 482913", "HDFC-Bank")
	if err != nil {
		t.Fatalf("IngestSMS() error = %v", err)
	}
	if matched {
		t.Error("IngestSMS() matched = true, want false")
	}
	if tx != nil {
		t.Errorf("transaction = %+v, want nil", tx)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("inserted %d transactions, want 0", len(repo.inserted))
	}

	// The raw payload is archived even when nothing matches.
	if arch.smsCount != 1 {
		t.Errorf("archived %d SMS payloads, want 1", arch.smsCount)
	}
}

func TestIngestSMS_ArchiveFailureIsNotFatal(t *testing.T) {
	repo := &mockRepository{}
	arch := &mockArchive{err: errors.New("bucket unavailable")}
	s := newTestService(repo, arch)

	_, matched, err := s.IngestSMS(context.Background(), "Rs.450.00 debited at SWIGGY BANGALORE on 12-05-24", "HDFC-Bank")
	if err != nil {
		t.Fatalf("IngestSMS() error = %v", err)
	}
	if !matched {
		t.Error("IngestSMS() matched = false, want true")
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted %d transactions, want 1", len(repo.inserted))
	}
}

func TestIngestSMS_InsertError(t *testing.T) {
	repo := &mockRepository{insertErr: errors.New("quota exceeded")}
	s := newTestService(repo, &mockArchive{})

	_, matched, err := s.IngestSMS(context.Background(), "Rs.450.00 debited at SWIGGY BANGALORE on 12-05-24", "HDFC-Bank")
	if err == nil {
		t.Fatal("IngestSMS() error = nil, want insert error")
	}
	if !matched {
		t.Error("IngestSMS() matched = false, want true even on insert failure")
	}
}

func TestIngestWebhook(t *testing.T) {
	repo := &mockRepository{}
	arch := &mockArchive{}
	s := newTestService(repo, arch)

	tx, err := s.IngestWebhook(context.Background(), webhook.Payload{
		Service:    "zomato",
		Amount:     350,
		Merchant:   "Zomato Restaurant",
		ExternalID: "ord_8812",
	})
	if err != nil {
		t.Fatalf("IngestWebhook() error = %v", err)
	}
	if tx.Category != domain.CategoryFood {
		t.Errorf("category = %q, want %q", tx.Category, domain.CategoryFood)
	}
	if tx.Provenance == nil || tx.Provenance.ExternalID != "ord_8812" {
		t.Errorf("provenance = %+v, want external ID ord_8812", tx.Provenance)
	}
	if arch.webhookCount != 1 {
		t.Errorf("archived %d webhook payloads, want 1", arch.webhookCount)
	}
}

func TestIngestWebhook_UnsupportedService(t *testing.T) {
	repo := &mockRepository{}
	s := newTestService(repo, &mockArchive{})

	_, err := s.IngestWebhook(context.Background(), webhook.Payload{
		Service:  "paytm",
		Amount:   100,
		Merchant: "Some Shop",
	})
	if !errors.Is(err, webhook.ErrUnsupportedService) {
		t.Errorf("IngestWebhook() error = %v, want ErrUnsupportedService", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("inserted %d transactions, want 0", len(repo.inserted))
	}
}
