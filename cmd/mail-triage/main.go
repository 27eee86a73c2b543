package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/di"
	"go.uber.org/zap"
)

var (
	maxEmails = flag.Int("n", -1, "Maximum number of emails to process (0 = no limit)")
	query     = flag.String("query", "", "Gmail search query (overrides triage.query)")
	dryRun    = flag.Bool("dry-run", false, "Force unsubscribe dry-run mode")
)

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Apply command line overrides before anything downstream of the
	// configuration is constructed
	if err := container.Invoke(applyFlags); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags pushes command line overrides into the loaded configuration
func applyFlags(cfg *config.Config) {
	if *maxEmails >= 0 {
		cfg.GetViper().Set("triage.max_emails", *maxEmails)
	}
	if *query != "" {
		cfg.GetViper().Set("triage.query", *query)
	}
	if *dryRun {
		cfg.GetViper().Set("unsubscribe.dry_run", true)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	svc *core.TriageService,
	classifier core.Classifier,
	history core.HistoryStore,
) error {
	defer logger.Sync()

	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		logger.Error("Triage pass failed", zap.Error(err))
		return err
	}

	printReport(summary, core.KeepSet(cfg.GetTriage().KeepCategories))

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}
	if history != nil {
		if err := history.Close(); err != nil {
			logger.Error("Failed to close history store", zap.Error(err))
		}
	}

	return nil
}

// printReport writes the end-of-run summary to stdout
func printReport(summary *core.TriageSummary, keepSet map[string]struct{}) {
	fmt.Printf("\n=== CATEGORIZATION RESULTS ===\n")

	categories := make([]string, 0, len(summary.CategoryCounts))
	for category := range summary.CategoryCounts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		action := "TRASHED"
		if core.Decide(category, keepSet) == core.ActionKeep {
			action = "KEPT"
		}
		fmt.Printf("%-14s %4d  %s\n", category, summary.CategoryCounts[category], action)
	}

	fmt.Printf("\nFetched:              %d\n", summary.Fetched)
	fmt.Printf("Processed:            %d\n", summary.Processed)
	fmt.Printf("Kept:                 %d\n", summary.Kept)
	fmt.Printf("Trashed:              %d\n", summary.Trashed)
	fmt.Printf("Already labeled:      %d\n", summary.SkippedAlreadyLabeled)
	fmt.Printf("Skipped (rate limit): %d\n", summary.SkippedRateLimited)
	fmt.Printf("Errors:               %d\n", summary.Errors)
	fmt.Printf("Unsubscribe attempts: %d\n", summary.UnsubscribeAttempts)
	fmt.Printf("Duration:             %v\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}
