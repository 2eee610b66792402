package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasklist-app/internal/config"
	"tasklist-app/internal/logger"
	"tasklist-app/internal/server"
	"tasklist-app/internal/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		logger.Error(context.Background(), err, "server failed")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(storage.Options{
		Driver:     cfg.Storage.Driver,
		FilePath:   cfg.Storage.FilePath,
		SQLitePath: cfg.Storage.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(ctx, err, "failed to close storage")
		}
	}()

	router := server.NewRouter(store, server.Options{
		Timeout:        cfg.HTTP.Timeout,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	srv := http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening",
			"address", srv.Addr,
			"driver", cfg.Storage.Driver,
			"file", cfg.Storage.FilePath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
