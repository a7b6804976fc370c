package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/repository"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFeedStore is a test implementation of repository.FeedStore. Videos
// are held newest first.
type mockFeedStore struct {
	mu         sync.Mutex
	videos     []domain.VideoSummary
	likes      map[domain.UserID]map[domain.VideoID]bool
	categories []domain.Category

	listErr       error
	listViewerErr error
	countErr      error
	getErr        error

	listCalls       int
	listViewerCalls int
}

func newMockFeedStore() *mockFeedStore {
	return &mockFeedStore{likes: make(map[domain.UserID]map[domain.VideoID]bool)}
}

func (m *mockFeedStore) match(f repository.FeedFilter) []domain.VideoSummary {
	var out []domain.VideoSummary
	for _, v := range m.videos {
		if !v.Published {
			continue
		}
		if f.Category != "" && !hasCategory(v, f.Category) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (m *mockFeedStore) page(f repository.FeedFilter) []domain.VideoSummary {
	all := m.match(f)
	if f.Offset >= len(all) {
		return []domain.VideoSummary{}
	}
	end := min(f.Offset+f.Limit, len(all))
	return append([]domain.VideoSummary(nil), all[f.Offset:end]...)
}

func (m *mockFeedStore) ListFeed(ctx context.Context, f repository.FeedFilter) ([]domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.page(f), nil
}

func (m *mockFeedStore) ListFeedForViewer(ctx context.Context, f repository.FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listViewerCalls++
	if m.listViewerErr != nil {
		return nil, m.listViewerErr
	}
	videos := m.page(f)
	for i := range videos {
		videos[i].Liked = m.likes[viewerID][videos[i].ID]
	}
	return videos, nil
}

func (m *mockFeedStore) CountFeed(ctx context.Context, f repository.FeedFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.match(f)), nil
}

func (m *mockFeedStore) GetVideo(ctx context.Context, id domain.VideoID, viewerID domain.UserID) (*domain.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, v := range m.videos {
		if v.ID == id {
			v.Liked = viewerID != "" && m.likes[viewerID][id]
			return &v, nil
		}
	}
	return nil, domain.ErrVideoNotFound
}

func (m *mockFeedStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return m.categories, nil
}

func (m *mockFeedStore) IncrementViews(ctx context.Context, id domain.VideoID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.videos {
		if m.videos[i].ID == id {
			m.videos[i].Views++
			return nil
		}
	}
	return domain.ErrVideoNotFound
}

func (m *mockFeedStore) Ping(ctx context.Context) error { return nil }

func (m *mockFeedStore) Close() error { return nil }

func (m *mockFeedStore) like(user domain.UserID, video domain.VideoID) {
	if m.likes[user] == nil {
		m.likes[user] = make(map[domain.VideoID]bool)
	}
	m.likes[user][video] = true
}

// mockViewRecorder records scheduled views.
type mockViewRecorder struct {
	mu       sync.Mutex
	recorded []domain.VideoID
	accept   bool
}

func (m *mockViewRecorder) Record(id domain.VideoID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, id)
	return m.accept
}

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
