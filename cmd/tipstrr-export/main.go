package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/config"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/export"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/logging"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/notify"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/storage"
	"github.com/Vodeneev/tipstrr-export/internal/tipstrr"
)

func main() {
	configPath := flag.String("config", "configs/production.yaml", "Path to config file")
	tipster := flag.String("tipster", "", "Tipster slug (overrides config)")
	count := flag.Int("count", 0, "Number of tips to fetch (0 = all available)")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *tipster != "" {
		cfg.Tipstrr.Tipster = *tipster
	}
	if *outputDir != "" {
		cfg.Export.OutputDir = *outputDir
	}

	if _, err := logging.Setup(&cfg.Logging, "tipstrr-export"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tipstrr.Username == "" || cfg.Tipstrr.Password == "" {
		fmt.Fprintln(os.Stderr, "Credentials are required: set TIPSTRR_USERNAME and TIPSTRR_PASSWORD or tipstrr.username/password in the config")
		os.Exit(1)
	}

	ctx := context.Background()
	parser := tipstrr.NewParser(cfg)

	if err := parser.Login(ctx); err != nil {
		if errors.Is(err, tipstrr.ErrLoginFailed) {
			fmt.Fprintln(os.Stderr, "Authentication failed, check username/password")
		} else {
			fmt.Fprintf(os.Stderr, "Login error: %v\n", err)
		}
		os.Exit(1)
	}

	records, failed, err := parser.Run(ctx, *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		slog.Warn("no records fetched, nothing to export", "failed", failed)
		return
	}

	exporter := export.NewExporter(cfg.Export.OutputDir)
	exp := exporter.ExportRecords(cfg.Tipstrr.Tipster, records, failed)

	files, err := exporter.WriteFiles(exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	slog.Info("export written", "table", files.Table, "csv", files.CSV, "json", files.JSON)

	exporter.PrintSummary(exp)

	if cfg.Postgres.DSN != "" {
		store, err := storage.NewTipStorage(&cfg.Postgres)
		if err != nil {
			slog.Error("postgres storage unavailable, skipping persistence", "error", err)
		} else {
			defer store.Close()
			if err := store.SaveRecords(ctx, records); err != nil {
				slog.Error("failed to save records to postgres", "error", err)
			} else {
				slog.Info("records saved to postgres", "count", len(records))
			}
		}
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		notifier.SendSummary(exporter.BuildSummary(exp))
	}
}
