package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/ledgerline/internal/archive"
	"github.com/dvloznov/ledgerline/internal/categorize"
	"github.com/dvloznov/ledgerline/internal/extract"
	infraBQ "github.com/dvloznov/ledgerline/internal/infra/bigquery"
	"github.com/dvloznov/ledgerline/internal/ingest"
	"github.com/dvloznov/ledgerline/internal/jobs"
	"github.com/dvloznov/ledgerline/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerline/internal/logger"
	"github.com/dvloznov/ledgerline/internal/webhook"
)

// The worker ingests a backlog of bank SMS messages in bulk, one message per
// line, read from a file or stdin. Each line is enqueued as a job and
// processed through the same path the API uses.
func main() {
	// Parse command-line flags
	var (
		file    = flag.String("file", "", "File with one SMS message per line (default: stdin)")
		sender  = flag.String("sender", "", "Sender ID to attribute to every message")
		project = flag.String("project", os.Getenv("BQ_PROJECT"), "GCP project ID for BigQuery (or set BQ_PROJECT env)")
		bucket  = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for raw payload archival (or set GCS_BUCKET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New("worker")

	ctx := context.Background()

	repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer repo.Close()

	var archiveStore archive.Store = archive.NopStore{}
	if *bucket != "" {
		archiveStore = archive.NewGCSStore(*bucket)
	}

	classifier := categorize.NewService(categorize.New(categorize.DefaultRules()), nil, log)
	extractor := extract.NewExtractor(extract.DefaultRegistry(), classifier)
	normalizer := webhook.NewNormalizer(webhook.DefaultProfiles())

	service := ingest.NewService(extractor, normalizer, repo, archiveStore, log)

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Create job handler that processes ingestion jobs
	handler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestMessageJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		tx, matched, err := service.IngestSMS(ctx, ingestJob.Message, ingestJob.Sender)
		if err != nil {
			return err
		}

		if matched {
			ingestJob.Outcome = jobs.OutcomeStored
			ingestJob.TransactionID = tx.ID
		} else {
			ingestJob.Outcome = jobs.OutcomeNoMatch
		}

		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start consuming jobs
	if err := jobQueue.Start(workerCtx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	// Read messages and enqueue them
	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to open input file")
		}
		defer f.Close()
		in = f
	}

	var jobIDs []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		job := &jobs.IngestMessageJob{
			Message: message,
			Sender:  *sender,
		}
		if err := jobQueue.PublishIngestMessage(ctx, job); err != nil {
			log.Error().Err(err).Msg("Failed to enqueue message")
			continue
		}
		jobIDs = append(jobIDs, job.JobID)
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	log.Info().Int("count", len(jobIDs)).Msg("Enqueued messages, waiting for completion")

	// Poll the job store until every job settles
	waitForJobs(ctx, jobStore, jobIDs)

	// Stop the queue and wait for in-flight jobs
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Report per-outcome totals
	var stored, noMatch, failed int
	for _, id := range jobIDs {
		job, err := jobStore.GetJob(ctx, id)
		if err != nil {
			continue
		}
		switch {
		case job.Status == jobs.JobStatusFailed:
			failed++
		case job.Outcome == jobs.OutcomeStored:
			stored++
		case job.Outcome == jobs.OutcomeNoMatch:
			noMatch++
		}
	}

	log.Info().
		Int("stored", stored).
		Int("no_match", noMatch).
		Int("failed", failed).
		Msg("Bulk ingestion finished")

	if failed > 0 {
		os.Exit(1)
	}
}

func waitForJobs(ctx context.Context, store jobs.JobStore, jobIDs []string) {
	for {
		settled := true
		for _, id := range jobIDs {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				continue
			}
			switch job.Status {
			case jobs.JobStatusCompleted, jobs.JobStatusFailed:
			default:
				settled = false
			}
		}
		if settled {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
