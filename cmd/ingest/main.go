package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/ledgerline/internal/archive"
	"github.com/dvloznov/ledgerline/internal/categorize"
	"github.com/dvloznov/ledgerline/internal/extract"
	infraBQ "github.com/dvloznov/ledgerline/internal/infra/bigquery"
	"github.com/dvloznov/ledgerline/internal/ingest"
	"github.com/dvloznov/ledgerline/internal/logger"
	"github.com/dvloznov/ledgerline/internal/webhook"
)

// One-shot extraction for a single SMS message. By default the result is
// printed without touching BigQuery; pass -persist to store it.
func main() {
	// Parse command-line flags
	var (
		message = flag.String("message", "", "Raw SMS message text (required)")
		sender  = flag.String("sender", "", "SMS sender ID, e.g. HDFC-Bank")
		persist = flag.Bool("persist", false, "Persist the extracted transaction to BigQuery")
		project = flag.String("project", os.Getenv("BQ_PROJECT"), "GCP project ID for BigQuery (or set BQ_PROJECT env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New("ingest")

	if *message == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest -message <sms text> [-sender <sender id>] [-persist]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	classifier := categorize.NewService(categorize.New(categorize.DefaultRules()), nil, log)
	extractor := extract.NewExtractor(extract.DefaultRegistry(), classifier)

	if !*persist {
		candidate, ok := extractor.Extract(ctx, *message, *sender)
		if !ok {
			fmt.Println("No pattern matched the message")
			os.Exit(2)
		}

		tx := candidate.Transaction()
		printJSON(tx)
		return
	}

	repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer repo.Close()

	normalizer := webhook.NewNormalizer(webhook.DefaultProfiles())
	service := ingest.NewService(extractor, normalizer, repo, archive.NopStore{}, log)

	stored, matched, err := service.IngestSMS(ctx, *message, *sender)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ingest message")
	}
	if !matched {
		fmt.Println("No pattern matched the message")
		os.Exit(2)
	}

	printJSON(stored)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode result:", err)
		os.Exit(1)
	}
}
