package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	natsadapter "github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/nats"
	redisadapter "github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driving/http"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/config"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/worker"
)

var serveMode string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the engagement worker, or both",
	Long: `Run the ranking engine.

Modes:
  api     HTTP API only
  worker  engagement worker only
  all     both (default)

The worker reads engagement events from NATS (ENGAGEMENT_BUS=nats, needs
NATS_URL) or from a Redis stream (ENGAGEMENT_BUS=redis). In all mode a
nats bus without NATS_URL disables the worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := serveMode
		if mode == "" {
			mode = cfg.RunMode
		}
		switch mode {
		case "api", "worker", "all":
		default:
			return fmt.Errorf("unknown mode %q", mode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("newsrank starting", "version", version, "mode", mode)

		a, err := buildApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("shutdown incomplete", "error", err)
			}
		}()

		var w *worker.Worker
		if mode == "worker" || mode == "all" {
			w, err = startWorker(ctx, a, mode == "worker")
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
				a.checks["engagement_worker"] = w.Ready
			}
		}

		if mode == "worker" {
			<-ctx.Done()
			logger.Info("shutdown signal received")
			return nil
		}

		server := http.NewServer(
			http.Config{
				Host:           "0.0.0.0",
				Port:           cfg.Port,
				Version:        version,
				AllowedOrigins: []string{"*"},
			},
			a.auth,
			a.search,
			a.recommendations,
			a.metrics,
			a.checks,
			logger,
		)
		return server.Start(ctx, cfg.ShutdownTimeout)
	},
}

// startWorker subscribes to engagement events on the configured bus
func startWorker(ctx context.Context, a *app, required bool) (*worker.Worker, error) {
	subscriber, err := engagementSubscriber(ctx, a, required)
	if err != nil || subscriber == nil {
		return nil, err
	}

	w := worker.NewWorker(worker.WorkerConfig{
		Subscriber:  subscriber,
		Invalidator: a.recommendations,
		Logger:      logger,
		Concurrency: 4,
	})
	if err := w.Start(ctx); err != nil {
		_ = subscriber.Close()
		return nil, err
	}
	return w, nil
}

// engagementSubscriber returns nil when the nats bus is unconfigured and the
// worker is optional
func engagementSubscriber(ctx context.Context, a *app, required bool) (driven.EngagementSubscriber, error) {
	if cfg.Events.Bus == config.BackendRedis {
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisadapter.NewEngagementStream(ctx, client, cfg.Events.Stream, cfg.NATS.Queue, "", logger)
	}

	if cfg.NATS.URL == "" {
		if required {
			return nil, errors.New("worker mode requires NATS_URL")
		}
		logger.Warn("NATS_URL not set, engagement worker disabled")
		return nil, nil
	}
	subscriber, err := natsadapter.Connect(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Queue, natsadapter.Options{}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return subscriber, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "api, worker or all (overrides RUN_MODE)")
}
