package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/storage"
)

var (
	bytesServedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsreel_stream_bytes_total",
		Help: "Total media bytes written to clients.",
	})
	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsreel_stream_responses_total",
		Help: "Stream responses by HTTP status.",
	}, []string{"status"})
	abortedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsreel_stream_aborted_total",
		Help: "Streams terminated by an I/O error after headers were sent.",
	})
)

const copyBufferSize = 32 << 10

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, copyBufferSize)
		return &b
	},
}

// Result describes what Serve wrote.
type Result struct {
	Status  int
	Range   domain.ByteRange
	Written int64
}

// Started reports whether a success status and headers were committed.
func (r Result) Started() bool {
	return r.Status == http.StatusOK || r.Status == http.StatusPartialContent
}

// Streamer serves media files with byte-range support.
type Streamer struct {
	store  storage.MediaStore
	policy Policy
	logger *slog.Logger
}

// NewStreamer creates a streamer reading from store.
func NewStreamer(store storage.MediaStore, policy Policy, logger *slog.Logger) *Streamer {
	return &Streamer{
		store:  store,
		policy: policy.withDefaults(),
		logger: logger.With("component", "streamer"),
	}
}

// Serve writes the file identified by key, honoring the request's Range
// header. Errors found before headers are sent are written as JSON error
// responses; errors after that only terminate the body. The returned error
// is informational: the response has already been written.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, key string) (Result, error) {
	ctx := r.Context()

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrMediaNotFound) || errors.Is(err, domain.ErrInvalidMediaKey) {
			return s.fail(w, http.StatusNotFound, map[string]any{
				"message": "Video file not found",
			}), err
		}
		s.logger.Error("stat media failed", "key", key, "error", err)
		return s.fail(w, http.StatusInternalServerError, map[string]any{
			"message": "Error streaming video",
			"error":   err.Error(),
		}), err
	}

	rangeHeader := r.Header.Get("Range")
	win, err := Plan(rangeHeader, info.Size, s.policy)
	if err != nil {
		var re *domain.RangeError
		if errors.As(err, &re) {
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(info.Size, 10))
			return s.fail(w, http.StatusRequestedRangeNotSatisfiable, map[string]any{
				"message":  "Requested range not satisfiable",
				"range":    re.Range,
				"fileSize": re.Size,
			}), err
		}
		return s.fail(w, http.StatusInternalServerError, map[string]any{
			"message": "Error streaming video",
			"error":   err.Error(),
		}), err
	}

	br := win.Range
	if r.Method == http.MethodHead {
		return s.writeHeaders(w, key, win), nil
	}

	body, err := s.store.OpenRange(ctx, key, br.Start, br.Length())
	if err != nil {
		if errors.Is(err, domain.ErrMediaNotFound) {
			return s.fail(w, http.StatusNotFound, map[string]any{
				"message": "Video file not found",
			}), err
		}
		s.logger.Error("open media failed", "key", key, "error", err)
		return s.fail(w, http.StatusInternalServerError, map[string]any{
			"message": "Error streaming video",
			"error":   err.Error(),
		}), err
	}
	defer body.Close()

	res := s.writeHeaders(w, key, win)

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)

	// The response is committed from here on; failures can only be logged.
	n, err := io.CopyBuffer(w, &contextReader{ctx: ctx, r: body}, *bufp)
	res.Written = n
	bytesServedTotal.Add(float64(n))
	if err != nil {
		abortedTotal.Inc()
		if ctx.Err() != nil {
			s.logger.Debug("client disconnected mid-stream",
				"key", key, "range", br.ContentRange(), "written", n)
		} else {
			s.logger.Error("stream aborted",
				"key", key, "range", br.ContentRange(), "written", n, "error", err)
		}
		return res, fmt.Errorf("copy media: %w", err)
	}
	if n < br.Length() {
		s.logger.Warn("media shorter than planned range",
			"key", key, "range", br.ContentRange(), "written", n)
	}

	return res, nil
}

// writeHeaders commits the success status and media headers for win.
func (s *Streamer) writeHeaders(w http.ResponseWriter, key string, win Window) Result {
	br := win.Range
	status := http.StatusOK
	h := w.Header()
	h.Set("Content-Type", ContentType(key))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	if win.Partial {
		status = http.StatusPartialContent
		h.Set("Content-Range", br.ContentRange())
	}
	w.WriteHeader(status)
	responsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	return Result{Status: status, Range: br}
}

func (s *Streamer) fail(w http.ResponseWriter, status int, body map[string]any) Result {
	responsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
	return Result{Status: status}
}

// contextReader stops reading once the request context is done, so a
// client disconnect releases the file promptly.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
