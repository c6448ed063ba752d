package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"xpenso/internal/backend"
	"xpenso/internal/cli"
	apphttp "xpenso/internal/http"
	"xpenso/internal/log"
	"xpenso/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	svc := services.NewExpenseService(res.Store, res.Bills, res.Events, logger)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Bills:        res.LocalBills,
		Ready:        res.Ready,
		RateLimitRPM: cfg.RateLimitRPM,
		CacheTTL:     cfg.CacheTTL,
		Logger:       logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting xpenso server", "port", cfg.Port, "backend", cfg.DataBackend, "blob_backend", cfg.BlobBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		cancel()
		return
	}
	logger.Info("Server stopped gracefully")
}
