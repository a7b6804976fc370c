package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/iconidentify/newsreel/internal/api/middleware"
	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/repository"
	"github.com/iconidentify/newsreel/internal/service"
	"github.com/iconidentify/newsreel/internal/storage"
	"github.com/iconidentify/newsreel/internal/stream"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFeedStore is a test implementation of repository.FeedStore holding
// videos newest first.
type mockFeedStore struct {
	mu         sync.Mutex
	videos     []domain.VideoSummary
	liked      map[domain.UserID]map[domain.VideoID]bool
	categories []domain.Category

	listErr error
	getErr  error
	catErr  error
	pingErr error
}

func newMockFeedStore() *mockFeedStore {
	return &mockFeedStore{liked: make(map[domain.UserID]map[domain.VideoID]bool)}
}

func (m *mockFeedStore) add(id domain.VideoID, published bool, file string) {
	m.videos = append(m.videos, domain.VideoSummary{
		ID:         id,
		Title:      "Video " + id.String(),
		Creator:    domain.Creator{ID: "creator", Name: "Creator"},
		Categories: []domain.Category{{ID: "cat-tech", Name: "Tech"}},
		FileName:   file,
		Published:  published,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, len(m.videos), 0, time.UTC),
	})
}

func (m *mockFeedStore) filter(f repository.FeedFilter, viewerID domain.UserID) []domain.VideoSummary {
	var all []domain.VideoSummary
	for _, v := range m.videos {
		if !v.Published || (f.Category != "" && !hasCategory(v, f.Category)) {
			continue
		}
		v.Liked = viewerID != "" && m.liked[viewerID][v.ID]
		all = append(all, v)
	}
	if f.Offset >= len(all) {
		return []domain.VideoSummary{}
	}
	return all[f.Offset:min(f.Offset+f.Limit, len(all))]
}

func (m *mockFeedStore) ListFeed(ctx context.Context, f repository.FeedFilter) ([]domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.filter(f, ""), nil
}

func (m *mockFeedStore) ListFeedForViewer(ctx context.Context, f repository.FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.filter(f, viewerID), nil
}

func (m *mockFeedStore) CountFeed(ctx context.Context, f repository.FeedFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Offset, f.Limit = 0, len(m.videos)
	return len(m.filter(f, "")), nil
}

func (m *mockFeedStore) GetVideo(ctx context.Context, id domain.VideoID, viewerID domain.UserID) (*domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, v := range m.videos {
		if v.ID == id {
			v.Liked = viewerID != "" && m.liked[viewerID][id]
			v.Bookmarked = v.Liked
			return &v, nil
		}
	}
	return nil, domain.ErrVideoNotFound
}

func (m *mockFeedStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.catErr != nil {
		return nil, m.catErr
	}
	return m.categories, nil
}

func (m *mockFeedStore) IncrementViews(ctx context.Context, id domain.VideoID) error {
	return nil
}

func (m *mockFeedStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockFeedStore) Close() error { return nil }

// mockMediaStore is an in-memory storage.MediaStore.
type mockMediaStore struct {
	files   map[string][]byte
	pingErr error
}

func (m *mockMediaStore) Stat(ctx context.Context, key string) (storage.FileInfo, error) {
	data, ok := m.files[key]
	if !ok {
		return storage.FileInfo{}, domain.ErrMediaNotFound
	}
	return storage.FileInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *mockMediaStore) OpenRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	data, ok := m.files[key]
	if !ok {
		return nil, domain.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(data[offset : offset+length])), nil
}

func (m *mockMediaStore) Ping(ctx context.Context) error { return m.pingErr }

// mockViewRecorder records scheduled views.
type mockViewRecorder struct {
	mu       sync.Mutex
	recorded []domain.VideoID
}

func (m *mockViewRecorder) Record(id domain.VideoID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, id)
	return true
}

func (m *mockViewRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recorded)
}

type testEnv struct {
	store  *mockFeedStore
	media  *mockMediaStore
	views  *mockViewRecorder
	router chi.Router
}

// newTestEnv wires real services over in-memory stores behind a chi router
// so URL parameters resolve as in production.
func newTestEnv() *testEnv {
	env := &testEnv{
		store: newMockFeedStore(),
		media: &mockMediaStore{files: make(map[string][]byte)},
		views: &mockViewRecorder{},
	}
	logger := testLogger()

	feedSvc := service.NewFeedService(env.store, nil, logger)
	videoSvc := service.NewVideoService(env.store, env.views, logger)
	streamer := stream.NewStreamer(env.media, stream.DefaultPolicy(), logger)

	feed := NewFeedHandler(feedSvc, logger)
	video := NewVideoHandler(videoSvc, streamer, logger)
	cats := NewCategoryHandler(videoSvc, logger)

	r := chi.NewRouter()
	r.Get("/api/videos/feed", feed.Feed)
	r.Get("/api/videos/{id}", video.Get)
	r.Get("/api/videos/{id}/stream", video.Stream)
	r.Head("/api/videos/{id}/stream", video.Stream)
	r.Get("/api/categories", cats.List)
	env.router = r
	return env
}

func (e *testEnv) do(method, target string, viewer *domain.Viewer, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	if viewer != nil {
		req = req.WithContext(mw.WithViewer(req.Context(), viewer))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")

// hasCategory mirrors the store's category predicate: a match on ID or,
// case-insensitively, on name.
func hasCategory(v domain.VideoSummary, filter string) bool {
	for _, c := range v.Categories {
		if c.ID == filter || strings.EqualFold(c.Name, filter) {
			return true
		}
	}
	return false
}
