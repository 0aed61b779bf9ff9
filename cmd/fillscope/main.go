package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/fillscope/config"
	"github.com/alejandrodnm/fillscope/internal/adapters/fillfile"
	"github.com/alejandrodnm/fillscope/internal/adapters/l2file"
	"github.com/alejandrodnm/fillscope/internal/adapters/notify"
	"github.com/alejandrodnm/fillscope/internal/adapters/polymarket"
	"github.com/alejandrodnm/fillscope/internal/adapters/pricelog"
	"github.com/alejandrodnm/fillscope/internal/adapters/storage"
	"github.com/alejandrodnm/fillscope/internal/analysis"
	"github.com/alejandrodnm/fillscope/internal/classify"
	"github.com/alejandrodnm/fillscope/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "l2", "analysis mode: l2 (book snapshots) | edge (price log)")
	fetch := flag.Bool("fetch", false, "download wallet fill history to fills_path and exit")
	noStore := flag.Bool("no-store", false, "skip persisting the run to sqlite")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *fetch {
		runFetch(ctx, cfg)
		return
	}

	if *mode != domain.ModeL2 && *mode != domain.ModeEdge {
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	slog.Info("fillscope starting",
		"config", *configPath,
		"mode", *mode,
		"fills", cfg.Data.FillsPath,
	)

	engineCfg := analysis.Config{
		Mode:                *mode,
		MaxBookGap:          cfg.Analysis.MaxBookGapSeconds,
		PriceMaxGap:         cfg.Analysis.PriceMaxGapSeconds,
		Method:              classify.Method(cfg.Analysis.Method),
		VanishedTolerance:   cfg.Analysis.VanishedTolerance,
		DepthLevels:         cfg.Analysis.DepthLevels,
		MinBookEvents:       cfg.Analysis.MinBookEvents,
		MinObservations:     cfg.Analysis.MinObservations,
		WindowDuration:      cfg.Analysis.WindowSeconds,
		MinWindowDuration:   cfg.Analysis.MinWindowSeconds,
		SettlementThreshold: cfg.Analysis.SettlementThreshold,
		AnalysisWorkers:     cfg.Analysis.Workers,
	}

	var store *storage.SQLiteStorage
	if !*noStore {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	fills := fillfile.NewReader(cfg.Data.FillsPath)
	books := l2file.NewReader(cfg.Data.BooksDir)
	prices := pricelog.NewReader(cfg.Data.PricesPath)
	reporter := notify.NewConsole()

	// *SQLiteStorage nil no es un ports.Storage nil: pasarlo tipado.
	engine := newEngine(engineCfg, fills, books, prices, store, reporter)

	if _, err := engine.Run(ctx); err != nil {
		slog.Error("analysis failed", "err", err)
		os.Exit(1)
	}

	slog.Info("fillscope finished")
}

// newEngine arma el engine evitando el nil typed-interface de storage.
func newEngine(
	cfg analysis.Config,
	fills *fillfile.Reader,
	books *l2file.Reader,
	prices *pricelog.Reader,
	store *storage.SQLiteStorage,
	reporter *notify.Console,
) *analysis.Engine {
	if store == nil {
		return analysis.New(cfg, fills, books, prices, nil, reporter)
	}
	return analysis.New(cfg, fills, books, prices, store, reporter)
}

// runFetch descarga el historial de fills del wallet al archivo local.
func runFetch(ctx context.Context, cfg *config.Config) {
	if cfg.Data.Wallet == "" {
		slog.Error("fetch requires data.wallet (or FILLSCOPE_WALLET)")
		os.Exit(1)
	}

	client := polymarket.NewClient(cfg.Data.DataAPI)
	source := polymarket.NewActivitySource(client, cfg.Data.Wallet, cfg.Data.SlugPrefix)

	fills, err := source.Fills(ctx)
	if err != nil {
		slog.Error("fetch failed", "err", err)
		os.Exit(1)
	}

	if err := fillfile.Write(cfg.Data.FillsPath, fills); err != nil {
		slog.Error("write fills failed", "err", err, "path", cfg.Data.FillsPath)
		os.Exit(1)
	}

	slog.Info("fills saved", "path", cfg.Data.FillsPath, "count", len(fills))
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
