package repository

import (
	"context"

	"github.com/iconidentify/newsreel/internal/domain"
)

// FeedFilter selects the published videos that make up a feed.
type FeedFilter struct {
	// Category matches a category ID or, case-insensitively, its name.
	// Empty means no filter.
	Category string
	Limit    int
	Offset   int
}

// FilterFor builds the store filter for a normalized feed query.
func FilterFor(q domain.FeedQuery) FeedFilter {
	return FeedFilter{
		Category: q.Category,
		Limit:    q.Limit,
		Offset:   q.Offset(),
	}
}

// FeedStore reads the relational data behind the feed.
type FeedStore interface {
	// ListFeed returns one page of published videos, newest first, with
	// like and top-level comment counts. Viewer flags are left false.
	ListFeed(ctx context.Context, f FeedFilter) ([]domain.VideoSummary, error)

	// ListFeedForViewer is ListFeed with Liked and Bookmarked set for viewerID.
	ListFeedForViewer(ctx context.Context, f FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error)

	// CountFeed counts the videos matched by f, ignoring Limit and Offset.
	CountFeed(ctx context.Context, f FeedFilter) (int, error)

	// GetVideo returns a single video regardless of its published state.
	// When viewerID is non-empty the viewer flags are populated.
	GetVideo(ctx context.Context, id domain.VideoID, viewerID domain.UserID) (*domain.VideoSummary, error)

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// IncrementViews adds one to a video's view counter.
	IncrementViews(ctx context.Context, id domain.VideoID) error

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
