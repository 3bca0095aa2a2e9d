// Package ingest orchestrates the two extraction paths: raw SMS text through
// the pattern extractor, and structured webhook payloads through the service
// profile table. Both end at the transaction store.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/archive"
	"github.com/dvloznov/ledgerline/internal/domain"
	"github.com/dvloznov/ledgerline/internal/extract"
	infra "github.com/dvloznov/ledgerline/internal/infra/bigquery"
	"github.com/dvloznov/ledgerline/internal/webhook"
)

// Service wires the extraction core to the persistence and archive
// collaborators.
type Service struct {
	extractor  *extract.Extractor
	normalizer *webhook.Normalizer
	repo       infra.TransactionRepository
	archive    archive.Store
	log        zerolog.Logger
}

// NewService creates the ingestion service.
func NewService(
	extractor *extract.Extractor,
	normalizer *webhook.Normalizer,
	repo infra.TransactionRepository,
	arch archive.Store,
	log zerolog.Logger,
) *Service {
	return &Service{
		extractor:  extractor,
		normalizer: normalizer,
		repo:       repo,
		archive:    arch,
		log:        log,
	}
}

// IngestSMS archives the raw message, runs extraction and persists a matched
// candidate. A false second return means no pattern recognized the message;
// that is an expected outcome and carries no error.
func (s *Service) IngestSMS(ctx context.Context, message, sender string) (*domain.Transaction, bool, error) {
	if uri, err := s.archive.ArchiveSMS(ctx, message, sender); err != nil {
		s.log.Warn().Err(err).Msg("Failed to archive SMS payload")
	} else if uri != "" {
		s.log.Debug().Str("uri", uri).Msg("Archived SMS payload")
	}

	candidate, ok := s.extractor.Extract(ctx, message, sender)
	if !ok {
		s.log.Info().Str("sender", sender).Msg("No pattern matched SMS message")
		return nil, false, nil
	}

	tx := candidate.Transaction()
	stored, err := s.repo.Insert(ctx, &tx)
	if err != nil {
		return nil, true, err
	}

	s.log.Info().
		Str("transaction_id", stored.ID).
		Float64("amount", stored.Amount).
		Str("merchant", candidate.Merchant).
		Str("category", string(stored.Category)).
		Msg("Stored SMS transaction")

	return stored, true, nil
}

// IngestWebhook archives the raw payload, normalizes it against the service
// profile table and persists the result. An unknown service returns
// webhook.ErrUnsupportedService.
func (s *Service) IngestWebhook(ctx context.Context, payload webhook.Payload) (*domain.Transaction, error) {
	if raw, err := json.Marshal(payload); err == nil {
		if uri, err := s.archive.ArchiveWebhook(ctx, payload.Service, raw); err != nil {
			s.log.Warn().Err(err).Msg("Failed to archive webhook payload")
		} else if uri != "" {
			s.log.Debug().Str("uri", uri).Msg("Archived webhook payload")
		}
	}

	tx, err := s.normalizer.Normalize(payload)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Insert(ctx, &tx)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", stored.ID).
		Str("service", payload.Service).
		Float64("amount", stored.Amount).
		Msg("Stored webhook transaction")

	return stored, nil
}
