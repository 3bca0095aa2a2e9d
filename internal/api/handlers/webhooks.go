package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/api/middleware"
	"github.com/dvloznov/ledgerline/internal/ingest"
	"github.com/dvloznov/ledgerline/internal/webhook"
)

// WebhooksHandler handles structured payment-service notifications.
type WebhooksHandler struct {
	service *ingest.Service
	log     zerolog.Logger
}

// NewWebhooksHandler creates a new webhooks handler.
func NewWebhooksHandler(service *ingest.Service, log zerolog.Logger) *WebhooksHandler {
	return &WebhooksHandler{service: service, log: log}
}

// HandleWebhook handles POST /api/webhooks/{service}. The service key in the
// path is authoritative; a service field in the body is ignored.
func (h *WebhooksHandler) HandleWebhook(w http.ResponseWriter, r *http.Request, service string) {
	var payload webhook.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	payload.Service = service

	if payload.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if payload.Merchant == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Merchant is required")
		return
	}

	tx, err := h.service.IngestWebhook(r.Context(), payload)
	if err != nil {
		if errors.Is(err, webhook.ErrUnsupportedService) {
			middleware.WriteError(w, http.StatusBadRequest, "Unsupported service: "+service)
			return
		}
		h.log.Error().Err(err).Str("service", service).Msg("Failed to store webhook transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Transaction created successfully",
		"transaction": tx,
	})
}
