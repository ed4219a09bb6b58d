package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vigil-dev/vigil"
	"github.com/vigil-dev/vigil/internal/config"
	"github.com/vigil-dev/vigil/pkg/inspector"
	"github.com/vigil-dev/vigil/pkg/source"
	"github.com/vigil-dev/vigil/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		listen string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a record directory over the inspector protocol",
		Long: `Serve loads every <type>.json file in the record directory, watches
the files for edits, and exposes the collections at /inspect.
Configuration is read from vigil.json in the working directory; flags
override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if dir != "" {
				cfg.Source.Dir = dir
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from vigil.json)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "record directory (default from vigil.json)")

	return cmd
}

func runServe(cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	src, err := source.OpenDir(cfg.Source.Dir,
		source.WithLogger(logger),
		source.WithDebounce(cfg.Source.Debounce()),
	)
	if err != nil {
		return err
	}
	defer src.Close()

	hooks := vigil.Hooks{}
	if cfg.Metrics.Enabled {
		hooks = telemetry.Combine(
			telemetry.Prometheus(telemetry.WithNamespace(cfg.Metrics.Namespace)),
			telemetry.OTel(),
		)
	}

	co := vigil.New(src,
		vigil.WithStrategy(src),
		vigil.WithCatalog(src),
		vigil.WithScheduler(src.Scheduler()),
		vigil.WithHooks(hooks),
	)
	defer co.Dispose()

	opts := []inspector.ServerOption{inspector.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, inspector.WithMetricsHandler(promhttp.Handler()))
	}
	insp := inspector.NewServer(co, opts...)
	defer insp.Close()

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: insp.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspector listening", "addr", cfg.Listen, "dir", cfg.Source.Dir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}
