package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/jobs"
	"github.com/dvloznov/ledgerline/internal/jobs/inmemory"
)

func seedJobStore(t *testing.T) *inmemory.Store {
	t.Helper()
	store := inmemory.NewStore()
	ctx := context.Background()

	seed := []*jobs.IngestMessageJob{
		{JobID: "job-1", Message: "m1", Status: jobs.JobStatusCompleted, Outcome: jobs.OutcomeStored, TransactionID: "tx-1"},
		{JobID: "job-2", Message: "m2", Status: jobs.JobStatusCompleted, Outcome: jobs.OutcomeNoMatch},
		{JobID: "job-3", Message: "m3", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", j.JobID, err)
		}
	}
	return store
}

func TestGetJob(t *testing.T) {
	h := NewJobsHandler(seedJobStore(t), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.GetJob(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil), "job-1")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["outcome"] != "stored" {
		t.Errorf("outcome = %v, want stored", body["outcome"])
	}
	if body["transaction_id"] != "tx-1" {
		t.Errorf("transaction_id = %v, want tx-1", body["transaction_id"])
	}

	rec = httptest.NewRecorder()
	h.GetJob(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil), "missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for missing job = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListJobs(t *testing.T) {
	h := NewJobsHandler(seedJobStore(t), zerolog.Nop())

	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"all jobs", "", 3},
		{"completed only", "?status=completed", 2},
		{"no match outcome", "?outcome=no_match", 1},
		{"limit", "?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListJobs(rec, httptest.NewRequest(http.MethodGet, "/api/jobs"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			body := decodeBody(t, rec)
			if got := body["count"].(float64); got != tt.want {
				t.Errorf("count = %v, want %v", got, tt.want)
			}
		})
	}
}
