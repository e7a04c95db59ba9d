// Command bio-gen drives a bounded-concurrency batch run over a CSV
// catalog of artists: for each row it calls the configured text-
// generation prompt, persists the result to Postgres, and streams an
// append-only JSONL result log for crash-safe resumption.
//
// Usage:
//
//	bio-gen run --input artists.csv --prompt-id pmpt_123 [flags]
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xdjs/artist-bio-gen/internal/db"
	"github.com/xdjs/artist-bio-gen/internal/input"
	"github.com/xdjs/artist-bio-gen/internal/orchestrator"
	"github.com/xdjs/artist-bio-gen/internal/pipeline"
	"github.com/xdjs/artist-bio-gen/internal/remote"
	"github.com/xdjs/artist-bio-gen/internal/resultlog"
	"github.com/xdjs/artist-bio-gen/internal/runctx"
	"github.com/xdjs/artist-bio-gen/internal/telemetry"
)

// version is set via ldflags at build time.
var version = "dev"

// Exit codes per the batch run's external contract.
const (
	exitOK            = 0
	exitInputError    = 2
	exitSystemicError = 3
	exitItemsFailed   = 4
	exitUnexpected    = 10
	exitInterrupted   = 130
)

type runFlags struct {
	inputPath      string
	promptID       string
	promptVersion  string
	workerCount    int
	maxAttempts    int
	resultLogPath  string
	resume         bool
	testMode       bool
	skipExisting   bool
	dailyLimit     int
	pauseThreshold float64
	quotaStatePath string
	metricsPort    string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:           "bio-gen",
		Short:         "Batch-generate artist bios via a configured text-generation prompt",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch over an input CSV",
	}

	runCmd.Flags().StringVar(&flags.inputPath, "input", "", "path to the input CSV (required)")
	runCmd.Flags().StringVar(&flags.promptID, "prompt-id", "", "text-generation prompt id (required)")
	runCmd.Flags().StringVar(&flags.promptVersion, "prompt-version", "", "prompt version (optional)")
	runCmd.Flags().IntVar(&flags.workerCount, "workers", 4, "number of concurrent submissions")
	runCmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", 6, "max attempts per remote call, including the first")
	runCmd.Flags().StringVar(&flags.resultLogPath, "result-log", "results.jsonl", "path to the append-only JSONL result log")
	runCmd.Flags().BoolVar(&flags.resume, "resume", false, "skip work ids already recorded as successful in the result log")
	runCmd.Flags().BoolVar(&flags.testMode, "test-mode", false, "write to test_artists instead of artists")
	runCmd.Flags().BoolVar(&flags.skipExisting, "skip-existing", false, "only update rows whose bio is currently NULL")
	runCmd.Flags().IntVar(&flags.dailyLimit, "daily-limit", 0, "daily request limit for quota monitoring; 0 disables")
	runCmd.Flags().Float64Var(&flags.pauseThreshold, "pause-threshold", 0.8, "quota usage fraction at which submissions pause")
	runCmd.Flags().StringVar(&flags.quotaStatePath, "quota-state", "", "path to persist/load quota monitor state; empty disables persistence")
	runCmd.Flags().StringVar(&flags.metricsPort, "metrics-port", "9090", "port to serve /healthz and /metrics on")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("prompt-id")

	exitCode := exitOK
	runCmd.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = doRun(cmd.Context(), flags)
		return nil
	}

	rootCmd.AddCommand(runCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitUnexpected
	}
	return exitCode
}

func doRun(ctx context.Context, flags *runFlags) int {
	logger := telemetry.SetupLogger()
	logger.Info("starting bio-gen", "version", version)

	parsed, err := input.ParseCSV(flags.inputPath, logger)
	if err != nil {
		logger.Error("failed to read input file", "error", err)
		return exitInputError
	}
	if len(parsed.Items) == 0 {
		logger.Error("input file produced no valid work items", "error_lines", parsed.ErrorLines)
		return exitInputError
	}
	logger.Info("parsed input", "items", len(parsed.Items), "skipped_lines", parsed.SkippedLines, "error_lines", parsed.ErrorLines)

	pool, err := db.NewPool(ctx, int32(flags.workerCount+2))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return exitSystemicError
	}

	var dailyLimit *int
	if flags.dailyLimit > 0 {
		dailyLimit = &flags.dailyLimit
	}

	rc, err := runctx.Acquire(runctx.Config{
		ResultLogPath:      flags.resultLogPath,
		PromptID:           flags.promptID,
		Version:            flags.promptVersion,
		Resume:             flags.resume,
		QuotaEnabled:       true,
		DailyLimitRequests: dailyLimit,
		PauseThreshold:     flags.pauseThreshold,
		QuotaStatePath:     flags.quotaStatePath,
		TestMode:           flags.testMode,
		SkipExisting:       flags.skipExisting,
	}, pool, true, logger)
	if err != nil {
		logger.Error("failed to acquire run resources", "error", err)
		pool.Close()
		return exitSystemicError
	}
	defer rc.Close()

	items := parsed.Items
	if flags.resume {
		processed, err := resultlog.GetProcessedIDs(flags.resultLogPath, logger)
		if err != nil {
			logger.Error("failed to read result log for resume", "error", err)
			return exitSystemicError
		}
		filtered := items[:0]
		for _, item := range items {
			if _, done := processed[item.ID]; !done {
				filtered = append(filtered, item)
			}
		}
		logger.Info("resume filtering applied", "already_processed", len(processed), "remaining", len(filtered))
		items = filtered
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: ":" + flags.metricsPort, Handler: mux}
	go func() {
		logger.Info("serving healthz and metrics", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server error", "error", err)
		}
	}()
	defer server.Close()

	apiKey := os.Getenv("TEXTGEN_API_KEY")
	baseURL := os.Getenv("TEXTGEN_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	client := remote.NewHTTPClient(baseURL, apiKey)

	orch := orchestrator.New(orchestrator.Config{
		WorkerCount:          flags.workerCount,
		MaxAttempts:          flags.maxAttempts,
		PromptID:             flags.promptID,
		Version:              flags.promptVersion,
		TestMode:             flags.testMode,
		SkipExisting:         flags.skipExisting,
		DailyLimitConfigured: dailyLimit != nil,
		Client:               client,
		Processor:            pipeline.NewProcessor(),
		QuotaMonitor:         rc.QuotaMonitor,
		PauseController:      rc.PauseController,
		ResultLog:            rc.ResultLog,
		Updater:              rc.ArtistRepo,
		Metrics:              metrics,
		Logger:               logger,
		Abort:                rc.Abort,
		StateSink:            rc,
	})

	successful, failed, runErr := orch.Run(ctx, items)
	logger.Info("run finished", "successful", successful, "failed", failed, "error", runErr)

	switch {
	case runErr == context.Canceled || runErr == context.DeadlineExceeded:
		return exitInterrupted
	case runErr == orchestrator.ErrAborted:
		return exitSystemicError
	case runErr != nil:
		logger.Error("run ended with an unexpected error", "error", runErr)
		return exitUnexpected
	case failed > 0:
		return exitItemsFailed
	default:
		return exitOK
	}
}
