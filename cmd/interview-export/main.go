// Command interview-export writes an XLSX report of a job's submissions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/hireloop/interviewd/internal/common"
	"github.com/hireloop/interviewd/internal/export"
	repo "github.com/hireloop/interviewd/internal/repository"
)

func main() {
	var (
		jobID = flag.String("job", "", "job id to export submissions for (required)")
		out   = flag.String("out", "submissions.xlsx", "output XLSX file path")
	)
	flag.Parse()

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "Error: --job is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := repo.OpenStore(ctx, cfg.Database.Driver, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := export.NewService(store, logger)
	data, err := svc.ExportSubmissionsXLSX(ctx, *jobID)
	if err != nil {
		logger.Error("export failed", "job_id", *jobID, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Export written to %s\n", *out)
}
