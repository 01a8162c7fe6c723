package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/nba-ingest/internal/app"
	"github.com/riskibarqy/nba-ingest/internal/config"
	"github.com/riskibarqy/nba-ingest/internal/observability"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
	"github.com/riskibarqy/nba-ingest/internal/usecase"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse log level: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewJSON(level).With("service", cfg.ServiceName)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init profiling", "error", err)
		os.Exit(1)
	}
	defer func() { _ = stopProfiling() }()

	components, err := app.NewComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("build components", "error", err)
		os.Exit(1)
	}
	defer func() { _ = components.Close() }()

	if err := run(ctx, components, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, components *app.Components, logger *logging.Logger, command string, args []string) error {
	switch command {
	case "init-db":
		return components.Schema.CreateSchema(ctx)
	case "setup":
		result, err := components.Ingestion.RunSetup(ctx)
		reportRun(ctx, logger, result)
		return err
	case "ingest":
		return runIngest(ctx, components, logger, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIngest(ctx context.Context, components *app.Components, logger *logging.Logger, args []string) error {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	dateArg := flags.String("date", "", "single date to ingest (YYYY-MM-DD)")
	startArg := flags.String("start-date", "", "range start date (YYYY-MM-DD)")
	endArg := flags.String("end-date", "", "range end date, inclusive (YYYY-MM-DD)")
	noBoxScores := flags.Bool("no-box-scores", false, "skip per-game box score loading")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *noBoxScores {
		components.Ingestion.SkipBoxScores(true)
	}

	switch {
	case *dateArg != "":
		day, err := time.Parse(dateLayout, *dateArg)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		result, err := components.Ingestion.RunDate(ctx, day)
		reportRun(ctx, logger, result)
		return err
	case *startArg != "" && *endArg != "":
		start, err := time.Parse(dateLayout, *startArg)
		if err != nil {
			return fmt.Errorf("invalid --start-date: %w", err)
		}
		end, err := time.Parse(dateLayout, *endArg)
		if err != nil {
			return fmt.Errorf("invalid --end-date: %w", err)
		}
		result, err := components.Ingestion.RunDateRange(ctx, start, end)
		reportRun(ctx, logger, result)
		return err
	default:
		return fmt.Errorf("ingest requires --date or both --start-date and --end-date")
	}
}

func reportRun(ctx context.Context, logger *logging.Logger, result usecase.RunResult) {
	for _, stage := range result.Stages {
		logger.InfoContext(ctx, "stage finished",
			"stage", stage.Stage,
			"status", stage.Status,
			"fetched", stage.Fetched,
			"validated", stage.Validated,
			"loaded", stage.Loaded,
			"skipped", stage.Skipped,
			"duration_ms", stage.DurationMs,
		)
	}
	if errs := result.Errors(); len(errs) > 0 {
		logger.WarnContext(ctx, "run finished with stage failures",
			"failures", len(errs), "errors", errs)
		return
	}
	logger.InfoContext(ctx, "run finished", "loaded", result.TotalLoaded())
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: ingest <command> [flags]

commands:
  init-db   create the destination schema (idempotent)
  setup     load canonical teams and players
  ingest    load games, box scores and injuries
            --date YYYY-MM-DD | --start-date YYYY-MM-DD --end-date YYYY-MM-DD
            [--no-box-scores]`)
}
