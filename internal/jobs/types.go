// Package jobs defines the asynchronous ingestion job model and the queue
// abstractions it moves through.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestMessage represents a raw SMS ingestion job.
	JobTypeIngestMessage JobType = "ingest_message"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Outcome records how an ingestion job resolved. A message no pattern
// recognizes completes with OutcomeNoMatch; it is not a failure.
type Outcome string

const (
	OutcomeStored  Outcome = "stored"
	OutcomeNoMatch Outcome = "no_match"
)

// IngestMessageJob carries one raw SMS through extraction and persistence.
type IngestMessageJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Message is the raw SMS text to extract from.
	Message string `json:"message"`

	// Sender is the SMS sender ID, when known.
	Sender string `json:"sender,omitempty"`

	// Outcome records how extraction resolved.
	Outcome Outcome `json:"outcome,omitempty"`

	// TransactionID is the stored transaction's ID when Outcome is stored.
	TransactionID string `json:"transaction_id,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *IngestMessageJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *IngestMessageJob) GetType() JobType {
	return JobTypeIngestMessage
}

// GetStatus implements the Job interface.
func (j *IngestMessageJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows swapping the in-memory queue for Cloud Tasks or
// Pub/Sub without touching the handlers.
type Publisher interface {
	// PublishIngestMessage publishes a raw SMS ingestion job.
	PublishIngestMessage(ctx context.Context, job *IngestMessageJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for status queries.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *IngestMessageJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*IngestMessageJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestMessageJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Outcome filters jobs by extraction outcome.
	Outcome Outcome

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
