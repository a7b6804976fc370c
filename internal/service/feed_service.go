package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iconidentify/newsreel/internal/cache"
	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/repository"
)

const tracerName = "github.com/iconidentify/newsreel/internal/service"

var personalizationFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "newsreel_feed_personalization_fallbacks_total",
	Help: "Viewer-annotated feed queries that failed and were served anonymously.",
})

// FeedService assembles paginated feed pages.
type FeedService struct {
	store  repository.FeedStore
	cache  cache.FeedCache
	logger *slog.Logger
	tracer trace.Tracer
}

// NewFeedService creates a feed service. A nil cache disables caching.
func NewFeedService(store repository.FeedStore, c cache.FeedCache, logger *slog.Logger) *FeedService {
	if c == nil {
		c = cache.Noop{}
	}
	return &FeedService{
		store:  store,
		cache:  c,
		logger: logger.With("component", "feed"),
		tracer: otel.Tracer(tracerName),
	}
}

// GetFeedPage returns one page of published videos, newest first. When the
// query names a viewer, the videos carry that viewer's liked and bookmarked
// flags; if that lookup fails the page is served without them.
func (s *FeedService) GetFeedPage(ctx context.Context, q domain.FeedQuery) (*domain.FeedPage, error) {
	q = q.Normalize()

	ctx, span := s.tracer.Start(ctx, "FeedService.GetFeedPage", trace.WithAttributes(
		attribute.Int("feed.page", q.Page),
		attribute.Int("feed.limit", q.Limit),
		attribute.String("feed.category", q.Category),
		attribute.Bool("feed.personalized", q.Viewer != nil),
	))
	defer span.End()

	key := cache.Key(q)
	if page, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("feed cache read failed", "key", key, "error", err)
	} else if ok {
		span.SetAttributes(attribute.Bool("feed.cache_hit", true))
		return page, nil
	}

	f := repository.FilterFor(q)

	var (
		videos    []domain.VideoSummary
		annotated bool
		fellBack  bool
		err       error
	)
	if q.Viewer != nil {
		videos, err = s.store.ListFeedForViewer(ctx, f, q.Viewer.ID)
		if err != nil {
			personalizationFallbacksTotal.Inc()
			span.AddEvent("personalization fallback")
			s.logger.Warn("annotated feed query failed, serving anonymous feed",
				"viewer_id", q.Viewer.ID, "page", q.Page, "error", err)
			fellBack = true
		} else {
			annotated = true
		}
	}
	if !annotated {
		videos, err = s.store.ListFeed(ctx, f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list feed")
			return nil, fmt.Errorf("list feed: %w", err)
		}
	}

	total, err := s.store.CountFeed(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count feed")
		return nil, fmt.Errorf("count feed: %w", err)
	}

	page := domain.NewFeedPage(videos, q, total)

	// A degraded page is not cached under the viewer's key, so the next
	// request retries personalization.
	if !fellBack {
		if err := s.cache.Set(ctx, key, page); err != nil {
			s.logger.Warn("feed cache write failed", "key", key, "error", err)
		}
	}
	return page, nil
}
