package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"mext-feed/internal/domain/entity"
	"mext-feed/internal/observability/logging"
	"mext-feed/internal/observability/metrics"
	"mext-feed/internal/observability/tracing"
	"mext-feed/internal/usecase/filter"
	"mext-feed/internal/usecase/snapshot"
	"mext-feed/internal/usecase/tagger"
)

// FeedFetcher downloads the raw document of a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedParser extracts raw entries from a feed document.
type FeedParser interface {
	Parse(data []byte) (*entity.ParsedFeed, error)
}

// SnapshotWriter persists the snapshot of a run.
type SnapshotWriter interface {
	Write(ctx context.Context, snap entity.Snapshot) error
}

// Config controls how a run is executed.
type Config struct {
	// Parallelism is the number of feeds processed concurrently.
	// Values <= 1 process feeds one at a time in registry order.
	// Output is identical either way.
	Parallelism int
	// MaxItems caps the snapshot; <= 0 selects snapshot.DefaultMaxItems.
	MaxItems int
}

// Service polls the feed registry and produces the snapshot.
// Each feed is fetched, parsed, filtered and tagged independently; a failure
// in one feed is logged and never aborts the run.
type Service struct {
	Fetcher FeedFetcher
	Parser  FeedParser
	Filter  *filter.Filter
	Tagger  *tagger.Tagger
	Writer  SnapshotWriter
	Metrics *metrics.RunMetrics
	config  Config
	now     func() time.Time
}

// NewService creates a new fetch Service with the provided dependencies.
// A nil filter or tagger selects the built-in rules; metrics may be nil.
//
// Example:
//
//	svc := NewService(fetcher.NewHTTPFetcher(cfg), feedparser.Parser{},
//	    filter.New(rules.Filter), tagger.New(rules.Tagger),
//	    snapshotfile.NewFileWriter("data/items.json"), runMetrics,
//	    Config{Parallelism: 1, MaxItems: 600})
func NewService(
	fetcher FeedFetcher,
	parser FeedParser,
	f *filter.Filter,
	t *tagger.Tagger,
	writer SnapshotWriter,
	m *metrics.RunMetrics,
	config Config,
) *Service {
	if f == nil {
		f = filter.New(filter.DefaultRules())
	}
	if t == nil {
		t = tagger.New(tagger.DefaultRules())
	}
	return &Service{
		Fetcher: fetcher,
		Parser:  parser,
		Filter:  f,
		Tagger:  t,
		Writer:  writer,
		Metrics: m,
		config:  config,
		now:     time.Now,
	}
}

// RunStats contains statistics about one run.
type RunStats struct {
	Feeds         int
	FeedsOK       int
	FeedsFailed   int
	ItemsParsed   int
	ItemsDropped  int
	ItemsFiltered int
	ItemsKept     int
	SnapshotItems int
	Duration      time.Duration
	// Reports holds one entry per feed, in registry order.
	Reports []FeedReport
}

// Run collects items from every feed, builds the snapshot and writes it.
// Per-feed failures are reflected in the stats only; the returned error is
// non-nil only when the snapshot could not be written (ErrSnapshotWrite).
func (s *Service) Run(ctx context.Context, feeds []entity.FeedDescriptor) (*RunStats, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	items, stats := s.Collect(ctx, feeds)

	snap := snapshot.Build(items, s.config.MaxItems, s.now())
	if err := s.Writer.Write(ctx, snap); err != nil {
		if !errors.Is(err, ErrSnapshotWrite) {
			err = fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
		}
		stats.Duration = time.Since(start)
		return stats, err
	}

	stats.SnapshotItems = len(snap.Items)
	stats.Duration = time.Since(start)
	s.Metrics.RecordSnapshot(stats.SnapshotItems, stats.Duration)

	logger.Info("snapshot written",
		slog.Int("items", stats.SnapshotItems),
		slog.Int("kept", stats.ItemsKept),
		slog.Int("max_items", s.maxItems()),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

// Collect processes every feed and returns the kept items in registry order
// (feed order, then document order within a feed).
func (s *Service) Collect(ctx context.Context, feeds []entity.FeedDescriptor) ([]entity.NewsItem, *RunStats) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	ctx, span := tracing.GetTracer().Start(ctx, "feed.run")
	defer span.End()

	reports := make([]FeedReport, len(feeds))
	if s.config.Parallelism <= 1 {
		for i, d := range feeds {
			reports[i] = s.processFeed(ctx, d)
		}
	} else {
		// Workers never return errors: feed failures are recorded in the reports.
		var g errgroup.Group
		g.SetLimit(s.config.Parallelism)
		for i, d := range feeds {
			g.Go(func() error {
				reports[i] = s.processFeed(ctx, d)
				return nil
			})
		}
		_ = g.Wait()
	}

	stats := &RunStats{Feeds: len(feeds), Reports: reports}
	var items []entity.NewsItem
	for _, r := range reports {
		if r.Status == FeedOK {
			stats.FeedsOK++
		} else {
			stats.FeedsFailed++
		}
		stats.ItemsParsed += r.Parsed
		stats.ItemsDropped += r.Dropped
		stats.ItemsFiltered += r.Filtered
		stats.ItemsKept += r.Kept
		items = append(items, r.items...)
	}
	stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("feeds.total", stats.Feeds),
		attribute.Int("feeds.failed", stats.FeedsFailed),
		attribute.Int("items.kept", stats.ItemsKept),
	)

	logger.Info("all feeds processed",
		slog.Int("feeds", stats.Feeds),
		slog.Int("feeds_ok", stats.FeedsOK),
		slog.Int("feeds_failed", stats.FeedsFailed),
		slog.Int("items_parsed", stats.ItemsParsed),
		slog.Int("items_dropped", stats.ItemsDropped),
		slog.Int("items_filtered", stats.ItemsFiltered),
		slog.Int("items_kept", stats.ItemsKept),
		slog.Duration("duration", stats.Duration))

	return items, stats
}

func (s *Service) maxItems() int {
	if s.config.MaxItems <= 0 {
		return snapshot.DefaultMaxItems
	}
	return s.config.MaxItems
}
