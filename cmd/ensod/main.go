package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/enso-eruption-analysis/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/enso-eruption-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/enso-eruption-analysis/internal/config"
	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/couchcryptid/enso-eruption-analysis/internal/nino"
	"github.com/couchcryptid/enso-eruption-analysis/internal/observability"
	"github.com/couchcryptid/enso-eruption-analysis/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	analysisCfg, err := config.LoadAnalysis()
	if err != nil {
		slog.Error("failed to load analysis config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Optional control run for climatology anomalies (CONTROL_PATH).
	var control *domain.GriddedField
	if cfg.ControlPath != "" {
		ens, err := domain.ReadEnsembleFile(cfg.ControlPath)
		if err != nil {
			logger.Error("failed to load control run", "path", cfg.ControlPath, "error", err)
			os.Exit(1)
		}
		control = &ens.Field
		logger.Info("control run loaded", "path", cfg.ControlPath,
			"members", ens.Field.Dims.Members, "steps", ens.Field.Dims.Time)
	} else {
		logger.Info("no control run, analyzing fields as supplied")
	}

	indexer := nino.NewIndexer(cfg.SelectionCacheSize)
	analyzer, err := enso.NewAnalyzer(analysisCfg.EnsoConfig(), indexer)
	if err != nil {
		logger.Error("invalid analysis config", "error", err)
		os.Exit(1)
	}
	logger.Info("analyzer configured",
		"window", analysisCfg.Window,
		"post_window", analysisCfg.PostWindow,
		"low", analysisCfg.Low,
		"high", analysisCfg.High,
		"std_scale", analysisCfg.StdScale,
		"baseline", analysisCfg.Baseline,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(analyzer, control, indexer, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start analysis pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
