// Command composite downloads one SDO observation set from the Virtual Solar
// Observatory and renders the nine-panel AIA/HMI composite.
//
// All settings come from environment variables (see internal/config). With
// HTTP_ADDR set the command keeps serving the figure at /composite until
// interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/sdo-composite/internal/adapter/fits"
	httpadapter "github.com/couchcryptid/sdo-composite/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sdo-composite/internal/adapter/kafka"
	"github.com/couchcryptid/sdo-composite/internal/adapter/vso"
	"github.com/couchcryptid/sdo-composite/internal/config"
	"github.com/couchcryptid/sdo-composite/internal/observability"
	"github.com/couchcryptid/sdo-composite/internal/pipeline"
	"github.com/couchcryptid/sdo-composite/internal/render"
)

func main() {
	if err := run(); err != nil {
		slog.Error("composite failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	scene, err := config.LoadScene(cfg.SceneFile)
	if err != nil {
		return err
	}
	mode, err := vso.ParseMode(cfg.DownloadMode)
	if err != nil {
		return err
	}
	format, err := render.FormatFromPath(cfg.OutputPath)
	if err != nil {
		return err
	}

	client := vso.NewClient(cfg.VSOURL, cfg.VSOTimeout, logger, metrics)
	fetcher := vso.NewFetcher(client, client.HTTPClient(), cfg.DataDir, mode, cfg.ProgressInterval, logger, metrics)
	loader := fits.NewLoader(logger, metrics)
	renderer := render.NewRenderer(scene, cfg.FigureDPI, logger)

	// Event publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("composite events enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(client, fetcher, loader, renderer, publisher, pipeline.Options{
		DataDir:    cfg.DataDir,
		OutputPath: cfg.OutputPath,
		Format:     format,
		Scene:      scene,
		SkipFetch:  mode == vso.ModeNever,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()
	}

	if _, err := p.Run(ctx); err != nil {
		shutdown(srv, cfg.ShutdownTimeout, logger)
		return err
	}

	if srv != nil {
		logger.Info("serving composite until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
		logger.Info("shutting down")
		shutdown(srv, cfg.ShutdownTimeout, logger)
	}

	logger.Info("done")
	return nil
}
