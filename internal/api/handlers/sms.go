package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/api/middleware"
	"github.com/dvloznov/ledgerline/internal/ingest"
	"github.com/dvloznov/ledgerline/internal/jobs"
)

// SMSHandler handles SMS extraction endpoints.
type SMSHandler struct {
	service   *ingest.Service
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSMSHandler creates a new SMS handler.
func NewSMSHandler(service *ingest.Service, publisher jobs.Publisher, log zerolog.Logger) *SMSHandler {
	return &SMSHandler{service: service, publisher: publisher, log: log}
}

type smsRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// IngestSMS handles POST /api/sms
func (h *SMSHandler) IngestSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	tx, matched, err := h.service.IngestSMS(r.Context(), req.Message, req.Sender)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store SMS transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store transaction")
		return
	}
	if !matched {
		// Expected outcome for unrecognized formats, not a server fault.
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not parse a transaction from the message")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Transaction created successfully",
		"transaction": tx,
	})
}

type smsBatchRequest struct {
	Messages []smsRequest `json:"messages"`
}

// IngestSMSBatch handles POST /api/sms/batch. Messages are enqueued for
// asynchronous extraction; job IDs are returned for status polling.
func (h *SMSHandler) IngestSMSBatch(w http.ResponseWriter, r *http.Request) {
	var req smsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one message is required")
		return
	}

	ctx := r.Context()
	jobIDs := make([]string, 0, len(req.Messages))

	for _, m := range req.Messages {
		if m.Message == "" {
			continue
		}
		job := &jobs.IngestMessageJob{
			Message: m.Message,
			Sender:  m.Sender,
		}
		if err := h.publisher.PublishIngestMessage(ctx, job); err != nil {
			h.log.Error().Err(err).Msg("Failed to enqueue ingest job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue messages")
			return
		}
		jobIDs = append(jobIDs, job.JobID)
	}

	if len(jobIDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one message is required")
		return
	}

	h.log.Info().Int("count", len(jobIDs)).Msg("Ingest jobs enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_ids": jobIDs,
		"count":   len(jobIDs),
	})
}
