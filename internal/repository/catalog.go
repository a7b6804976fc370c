package repository

import (
	"context"
	"time"

	"github.com/iconidentify/newsreel/internal/domain"
)

// CatalogWriter loads catalog rows. Uploads and social actions are owned
// by other services; this exists for fixtures and local seeding.
type CatalogWriter interface {
	UpsertUser(ctx context.Context, u domain.Creator, role domain.Role) error
	UpsertCategory(ctx context.Context, c domain.Category) error
	// InsertVideo stores v and links it to the IDs in v.Categories.
	InsertVideo(ctx context.Context, v domain.VideoSummary) error
	AddLike(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error
	// AddComment stores a comment; parentID is empty for a top-level comment.
	AddComment(ctx context.Context, c Comment) error
	AddBookmark(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error
}

// Comment is a row in the comments table.
type Comment struct {
	ID        string
	VideoID   domain.VideoID
	UserID    domain.UserID
	ParentID  string
	Body      string
	CreatedAt time.Time
}

func createdOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func nullableParent(id string) any {
	if id == "" {
		return nil
	}
	return id
}
