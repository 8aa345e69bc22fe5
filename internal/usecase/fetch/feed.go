package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mext-feed/internal/domain/entity"
	"mext-feed/internal/observability/logging"
	"mext-feed/internal/observability/metrics"
	"mext-feed/internal/observability/tracing"
)

// FeedStatus is the outcome of processing one feed.
type FeedStatus string

// Feed outcomes. Values match the status label of mextfeed_feeds_total.
const (
	FeedOK          FeedStatus = metrics.FeedStatusOK
	FeedFetchFailed FeedStatus = metrics.FeedStatusFetchFailed
	FeedParseFailed FeedStatus = metrics.FeedStatusParseFailed
	FeedInvalid     FeedStatus = metrics.FeedStatusInvalid
)

// FeedReport describes what happened to one feed during a run.
type FeedReport struct {
	Feed    entity.FeedDescriptor
	Status  FeedStatus
	Dialect string
	// Parsed counts every entry in the document; Dropped the ones missing a
	// title or link; Filtered the ones rejected by the relevance filter.
	Parsed   int
	Dropped  int
	Filtered int
	Kept     int
	// LatestDate is the greatest date string among complete entries.
	LatestDate string
	Duration   time.Duration
	// Err wraps ErrFeedFetchFailed or ErrInvalidFeedFormat when Status is not FeedOK.
	Err error

	items []entity.NewsItem
}

// processFeed runs fetch → parse → drop incomplete → filter → tag for one
// feed. It never returns an error: failures end up in the report.
func (s *Service) processFeed(ctx context.Context, d entity.FeedDescriptor) FeedReport {
	d = d.WithDefaults()
	start := time.Now()
	report := FeedReport{Feed: d}

	ctx, span := tracing.StartFeedSpan(ctx, d.ID, d.URL)
	defer span.End()

	logger := logging.FromContext(ctx).With(
		slog.String("feed_id", d.ID),
		slog.String("feed_name", d.Name))
	ctx = logging.WithLogger(ctx, logger)

	fail := func(status FeedStatus, err error, msg string) FeedReport {
		report.Status = status
		report.Err = err
		report.Duration = time.Since(start)
		tracing.RecordError(span, err)
		s.Metrics.RecordFeed(string(status))
		logger.Warn(msg,
			slog.String("feed_url", d.URL),
			slog.String("status", string(status)),
			slog.Any("error", err))
		return report
	}

	if err := d.Validate(); err != nil {
		return fail(FeedInvalid, fmt.Errorf("%w: %w", ErrFeedFetchFailed, err), "invalid feed descriptor")
	}

	data, err := s.Fetcher.Fetch(ctx, d.URL)
	if err != nil {
		return fail(FeedFetchFailed, fmt.Errorf("%w: %w", ErrFeedFetchFailed, err), "failed to fetch feed")
	}

	parsed, err := s.Parser.Parse(data)
	if err != nil {
		return fail(FeedParseFailed, fmt.Errorf("%w: %w", ErrInvalidFeedFormat, err), "failed to parse feed")
	}

	report.Dialect = parsed.Dialect
	report.Parsed = len(parsed.Items)

	for _, raw := range parsed.Items {
		if !raw.IsComplete() {
			report.Dropped++
			continue
		}
		if raw.PublishedDateText > report.LatestDate {
			report.LatestDate = raw.PublishedDateText
		}

		decision := s.Filter.Evaluate(raw.Title, d.Category)
		if !decision.Keep {
			report.Filtered++
			logger.Debug("item filtered",
				slog.String("title", raw.Title),
				slog.String("rule", decision.Rule),
				slog.Int("score", decision.Score))
			continue
		}

		report.items = append(report.items, s.newsItem(raw, d))
	}

	report.Kept = len(report.items)
	report.Status = FeedOK
	report.Duration = time.Since(start)

	s.Metrics.RecordFeed(string(FeedOK))
	s.Metrics.RecordItems(metrics.StageParsed, report.Parsed)
	s.Metrics.RecordItems(metrics.StageDroppedIncomplete, report.Dropped)
	s.Metrics.RecordItems(metrics.StageFiltered, report.Filtered)
	s.Metrics.RecordItems(metrics.StageKept, report.Kept)

	span.SetAttributes(
		attribute.String("feed.dialect", report.Dialect),
		attribute.Int("feed.items.parsed", report.Parsed),
		attribute.Int("feed.items.kept", report.Kept),
	)

	logger.Info("feed processed",
		slog.String("dialect", report.Dialect),
		slog.Int("parsed", report.Parsed),
		slog.Int("dropped", report.Dropped),
		slog.Int("filtered", report.Filtered),
		slog.Int("kept", report.Kept),
		slog.Duration("duration", report.Duration))

	return report
}

func (s *Service) newsItem(raw entity.RawFeedItem, d entity.FeedDescriptor) entity.NewsItem {
	return entity.NewsItem{
		ID:            entity.Fingerprint(raw.Link),
		Title:         raw.Title,
		URL:           raw.Link,
		Date:          raw.PublishedDateText,
		Source:        d.Name,
		Category:      d.Category,
		ImportantHint: s.Tagger.IsImportant(raw.Title),
		Tags:          s.Tagger.Tags(raw.Title, d.Name, d.Category),
	}
}
