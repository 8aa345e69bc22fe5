package main

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"mext-feed/internal/config"
	"mext-feed/internal/domain/entity"
	"mext-feed/internal/infra/feedparser"
	"mext-feed/internal/infra/fetcher"
	snapshotfile "mext-feed/internal/infra/snapshot"
	"mext-feed/internal/observability/logging"
	"mext-feed/internal/observability/metrics"
	pkgconfig "mext-feed/internal/pkg/config"
	"mext-feed/internal/usecase/fetch"
	"mext-feed/internal/usecase/filter"
	"mext-feed/internal/usecase/snapshot"
	"mext-feed/internal/usecase/tagger"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "mextfeed",
		Usage: "Poll MEXT news feeds and publish a filtered JSON snapshot",
		Description: `mextfeed fetches the RSS/RDF/Atom feeds listed in the registry,
		keeps the items relevant to K-12 education and ICT policy, tags them,
		and writes the newest items as a single JSON snapshot.

		Flags can generally be set via environment variables, e.g.:

		--feeds => MEXTFEED_FEEDS=config/feeds.yaml
		--out   => MEXTFEED_OUT=data/items.json
		`,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			runCmd(),
			workerCmd(),
			checkCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return cli.ShowAppHelp(ctx)
		},
	}
}

func feedsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "feeds",
		Aliases: []string{"f"},
		Value:   "config/feeds.yaml",
		Usage:   "Feed registry file",
		EnvVars: []string{"MEXTFEED_FEEDS"},
	}
}

func rulesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "rules",
		Usage:   "Optional YAML file overriding filter and tagger rules",
		EnvVars: []string{"MEXTFEED_RULES"},
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Value:   "data/items.json",
		Usage:   "Snapshot output file",
		EnvVars: []string{"MEXTFEED_OUT"},
	}
}

func maxItemsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "max-items",
		Value:   snapshot.DefaultMaxItems,
		Usage:   "Maximum number of items in the snapshot",
		EnvVars: []string{"MEXTFEED_MAX_ITEMS"},
	}
}

// pipeline is everything one poll run needs.
type pipeline struct {
	logger  *slog.Logger
	feeds   []entity.FeedDescriptor
	service *fetch.Service
}

// newPipeline loads the registry and rules and wires the fetch service.
// Both load failures wrap config.ErrConfigLoad. writer may be nil for
// commands that never write a snapshot.
func newPipeline(c *cli.Context, reg prometheus.Registerer, writer fetch.SnapshotWriter) (*pipeline, error) {
	logger := logging.NewLogger(c.App.ErrWriter)
	slog.SetDefault(logger)

	feeds, err := config.LoadFeeds(c.String("feeds"))
	if err != nil {
		return nil, err
	}
	rules, err := config.LoadRules(c.String("rules"))
	if err != nil {
		return nil, err
	}

	fetchCfg := fetcher.LoadConfigFromEnv(logger, pkgconfig.NewConfigMetrics("fetcher", reg))

	svc := fetch.NewService(
		fetcher.NewHTTPFetcher(fetchCfg),
		feedparser.Parser{},
		filter.New(rules.Filter),
		tagger.New(rules.Tagger),
		writer,
		metrics.NewRunMetrics(reg),
		fetch.Config{
			Parallelism: fetchCfg.Parallelism,
			MaxItems:    c.Int("max-items"),
		},
	)

	logger.Info("feed registry loaded",
		slog.Int("feeds", len(feeds)),
		slog.String("path", c.String("feeds")),
		slog.Int("parallelism", fetchCfg.Parallelism))

	return &pipeline{logger: logger, feeds: feeds, service: svc}, nil
}

func newFileWriter(c *cli.Context) fetch.SnapshotWriter {
	return snapshotfile.NewFileWriter(c.String("out"))
}
