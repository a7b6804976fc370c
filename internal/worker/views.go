package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/events"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("view counter shutdown timed out")

var (
	viewsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsreel_views_recorded_total",
		Help: "View increments persisted.",
	})
	viewsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsreel_views_dropped_total",
		Help: "View events dropped because the queue was full or closed.",
	})
	viewsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsreel_views_failed_total",
		Help: "View increments that failed to persist.",
	})
)

// ViewStore persists view counts.
type ViewStore interface {
	IncrementViews(ctx context.Context, id domain.VideoID) error
}

// Config holds view counter configuration.
type Config struct {
	Workers   int
	QueueSize int
	// OpTimeout bounds a single increment plus publish, retries included.
	OpTimeout time.Duration
	Retry     RetryConfig
}

// ViewCounter records stream views off the request path. Record never
// blocks; under back-pressure views are dropped rather than delaying
// streaming.
type ViewCounter struct {
	workers   int
	opTimeout time.Duration
	retry     RetryConfig
	store     ViewStore
	publisher events.Publisher
	logger    *slog.Logger

	mu      sync.RWMutex
	queue   chan domain.VideoID
	stopped bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewViewCounter creates a view counter. A nil publisher disables events.
func NewViewCounter(cfg Config, store ViewStore, publisher events.Publisher, logger *slog.Logger) *ViewCounter {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ViewCounter{
		workers:   cfg.Workers,
		opTimeout: cfg.OpTimeout,
		retry:     cfg.Retry,
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "view_counter"),
		queue:     make(chan domain.VideoID, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches all workers.
func (c *ViewCounter) Start() {
	c.logger.Info("starting view counter", "workers", c.workers, "queue_size", cap(c.queue))

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
}

// Record schedules a view for id. It reports whether the view was queued.
func (c *ViewCounter) Record(id domain.VideoID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stopped {
		viewsDroppedTotal.Inc()
		return false
	}
	select {
	case c.queue <- id:
		return true
	default:
		viewsDroppedTotal.Inc()
		c.logger.Warn("view queue full, dropping view", "video_id", id)
		return false
	}
}

// Stop stops accepting views and waits for queued ones to be written.
// Work still pending at the deadline is abandoned.
func (c *ViewCounter) Stop(timeout time.Duration) error {
	c.logger.Info("stopping view counter", "pending", len(c.queue))

	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.queue)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		c.logger.Info("view counter stopped gracefully")
		return nil
	case <-time.After(timeout):
		c.cancel()
		return ErrShutdownTimeout
	}
}

func (c *ViewCounter) worker(id int) {
	defer c.wg.Done()

	logger := c.logger.With("worker_id", id)
	logger.Debug("worker started")

	for videoID := range c.queue {
		if c.ctx.Err() != nil {
			return
		}
		c.process(logger, videoID)
	}
	logger.Debug("worker stopping")
}

func (c *ViewCounter) process(logger *slog.Logger, videoID domain.VideoID) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opTimeout)
	defer cancel()

	attempts, err := retry(ctx, c.retry, func() error {
		return c.store.IncrementViews(ctx, videoID)
	}, transient)
	if err != nil {
		viewsFailedTotal.Inc()
		logger.Warn("failed to increment views", "video_id", videoID, "attempts", attempts, "error", err)
		return
	}
	viewsRecordedTotal.Inc()

	ev := domain.NewViewEvent(domain.EventID(uuid.NewString()), videoID)
	if err := c.publisher.PublishVideoViewed(ctx, ev); err != nil {
		logger.Warn("failed to publish view event", "video_id", videoID, "event_id", ev.ID, "error", err)
	}
}
