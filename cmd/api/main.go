package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/ledgerline/internal/api/handlers"
	"github.com/dvloznov/ledgerline/internal/api/middleware"
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

func main() {
	// Parse command-line flags
	var (
		port        = flag.String("port", "8080", "HTTP server port")
		project     = flag.String("project", os.Getenv("BQ_PROJECT"), "GCP project ID for BigQuery (or set BQ_PROJECT env)")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for raw payload archival (or set GCS_BUCKET env)")
		geminiModel = flag.String("gemini-model", categorize.DefaultModelName, "Gemini model for categorization fallback")
		useGemini   = flag.Bool("gemini", os.Getenv("GEMINI_API_KEY") != "", "Enable Gemini fallback for uncategorized merchants")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New("api")

	// Initialize repositories
	ctx := context.Background()

	repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer repo.Close()

	// Raw payload archive is optional; without a bucket every payload is
	// accepted but not retained.
	var archiveStore archive.Store = archive.NopStore{}
	if *bucket != "" {
		archiveStore = archive.NewGCSStore(*bucket)
	} else {
		log.Warn().Msg("No GCS bucket configured - raw payload archival is disabled")
	}

	// Initialize the extraction core
	var gen categorize.Generator
	if *useGemini {
		gemini, err := categorize.NewGeminiGenerator(ctx, *geminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create Gemini client - fallback categorization disabled")
		} else {
			gen = gemini
			log.Info().Str("model", *geminiModel).Msg("Gemini categorization fallback enabled")
		}
	}

	classifier := categorize.NewService(categorize.New(categorize.DefaultRules()), gen, log)
	extractor := extract.NewExtractor(extract.DefaultRegistry(), classifier)
	normalizer := webhook.NewNormalizer(webhook.DefaultProfiles())

	service := ingest.NewService(extractor, normalizer, repo, archiveStore, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler for processing ingestion jobs
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestMessageJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		tx, matched, err := service.IngestSMS(ctx, ingestJob.Message, ingestJob.Sender)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", ingestJob.JobID).
				Msg("Ingestion job failed")
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

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	smsHandler := handlers.NewSMSHandler(service, jobQueue, log)
	webhooksHandler := handlers.NewWebhooksHandler(service, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Root endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Ledgerline API",
		})
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		// Extract transaction ID from path
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.GetTransaction(w, r, id)
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.GetSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// SMS ingestion endpoints
	mux.HandleFunc("/api/sms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			smsHandler.IngestSMS(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sms/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			smsHandler.IngestSMSBatch(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Webhook endpoints
	mux.HandleFunc("/api/webhooks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			// Extract service name from path
			svc := strings.TrimPrefix(r.URL.Path, "/api/webhooks/")
			if svc == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Service name is required")
				return
			}
			webhooksHandler.HandleWebhook(w, r, svc)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
