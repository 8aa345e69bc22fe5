package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"mext-feed/internal/observability/logging"
	"mext-feed/internal/observability/metrics"
	"mext-feed/internal/usecase/fetch"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Poll every feed once and write the snapshot",
		Description: `Fetch every feed in the registry, filter and tag the items and
		overwrite the snapshot file.

		Feeds that fail to download or parse are logged and skipped. The command
		exits non-zero only when the registry cannot be loaded or the snapshot
		cannot be written.`,
		Flags: []cli.Flag{
			feedsFlag(),
			rulesFlag(),
			outFlag(),
			maxItemsFlag(),
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write run metrics in Prometheus text format to this file",
				EnvVars: []string{"MEXTFEED_METRICS_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			reg := prometheus.NewRegistry()
			p, err := newPipeline(c, reg, newFileWriter(c))
			if err != nil {
				return err
			}

			ctx, logger := logging.WithRunID(c.Context, p.logger)
			if _, err := runOnce(ctx, logger, p); err != nil {
				return err
			}

			if path := c.String("metrics-file"); path != "" {
				if err := metrics.WriteTextfile(path, reg); err != nil {
					// メトリクスの書き出し失敗は実行結果に影響させない
					logger.Warn("failed to write metrics file",
						slog.String("path", path),
						slog.Any("error", err))
				}
			}
			return nil
		},
	}
}

// runOnce performs one poll run and logs its summary.
func runOnce(ctx context.Context, logger *slog.Logger, p *pipeline) (*fetch.RunStats, error) {
	logger.Info("run started", slog.Int("feeds", len(p.feeds)))

	stats, err := p.service.Run(ctx, p.feeds)
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		return stats, err
	}

	logger.Info("run completed",
		slog.Int("feeds_ok", stats.FeedsOK),
		slog.Int("feeds_failed", stats.FeedsFailed),
		slog.Int("items_parsed", stats.ItemsParsed),
		slog.Int("items_dropped", stats.ItemsDropped),
		slog.Int("items_filtered", stats.ItemsFiltered),
		slog.Int("snapshot_items", stats.SnapshotItems),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
