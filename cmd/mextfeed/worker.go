package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	workerPkg "mext-feed/internal/infra/worker"
	"mext-feed/internal/observability/logging"
)

func workerCmd() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run the poller on a cron schedule",
		Description: `Run forever, polling every feed on CRON_SCHEDULE (default every
		three hours, WORKER_TIMEZONE Asia/Tokyo) and rewriting the snapshot.

		Health probes are served on WORKER_HEALTH_PORT (/health, /health/ready)
		and Prometheus metrics on METRICS_PORT (/metrics).`,
		Flags: []cli.Flag{
			feedsFlag(),
			rulesFlag(),
			outFlag(),
			maxItemsFlag(),
			&cli.BoolFlag{
				Name:    "run-on-start",
				Usage:   "Run once immediately before waiting for the schedule",
				EnvVars: []string{"MEXTFEED_RUN_ON_START"},
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			p, err := newPipeline(c, reg, newFileWriter(c))
			if err != nil {
				return err
			}
			logger := p.logger

			workerMetrics := workerPkg.NewWorkerMetrics(reg)
			cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics.ConfigMetrics)
			logger.Info("worker configuration loaded",
				slog.String("cron_schedule", cfg.CronSchedule),
				slog.String("timezone", cfg.Timezone),
				slog.Duration("run_timeout", cfg.RunTimeout),
				slog.Int("health_port", cfg.HealthPort),
				slog.Int("metrics_port", cfg.MetricsPort))

			startMetricsServer(ctx, logger, fmt.Sprintf(":%d", cfg.MetricsPort), reg)

			healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
			go func() {
				if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("health server failed", slog.Any("error", err))
				}
			}()

			job := func() { runScheduledJob(ctx, p, cfg, workerMetrics, healthServer) }

			scheduler := cron.New(
				cron.WithLocation(cfg.Location()),
				cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
			)
			if _, err := scheduler.AddFunc(cfg.CronSchedule, job); err != nil {
				return fmt.Errorf("add cron job: %w", err)
			}

			if c.Bool("run-on-start") {
				job()
			}

			scheduler.Start()
			healthServer.SetReady(true)
			logger.Info("worker started",
				slog.String("schedule", cfg.CronSchedule),
				slog.String("timezone", cfg.Timezone))

			<-ctx.Done()

			healthServer.SetReady(false)
			logger.Info("worker stopping, waiting for running job")
			<-scheduler.Stop().Done()
			logger.Info("worker stopped")
			return nil
		},
	}
}

// runScheduledJob executes one poll run bounded by RunTimeout.
// A failed run is logged and counted; the worker keeps its schedule.
func runScheduledJob(parent context.Context, p *pipeline, cfg workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics, health *workerPkg.HealthServer) {
	// 実行ごとのタイムアウト（設定から取得）
	ctx, cancel := context.WithTimeout(parent, cfg.RunTimeout)
	defer cancel()

	ctx, logger := logging.WithRunID(ctx, p.logger)
	start := time.Now()

	stats, err := runOnce(ctx, logger, p)

	status := workerPkg.RunStatus{FinishedAt: time.Now().UTC(), OK: err == nil}
	feeds := 0
	if stats != nil {
		status.SnapshotItems = stats.SnapshotItems
		status.FeedsFailed = stats.FeedsFailed
		feeds = stats.Feeds
	}
	if err != nil {
		status.Error = err.Error()
	}

	m.RecordJob(err, time.Since(start), feeds)
	health.RecordRun(status)
}
