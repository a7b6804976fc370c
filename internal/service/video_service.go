package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/repository"
)

// ViewRecorder schedules a view increment without waiting for it.
type ViewRecorder interface {
	Record(id domain.VideoID) bool
}

// VideoService serves single-video lookups and stream resolution.
type VideoService struct {
	store  repository.FeedStore
	views  ViewRecorder
	logger *slog.Logger
}

// NewVideoService creates a new video service. A nil recorder disables
// view counting.
func NewVideoService(store repository.FeedStore, views ViewRecorder, logger *slog.Logger) *VideoService {
	return &VideoService{
		store:  store,
		views:  views,
		logger: logger.With("component", "video"),
	}
}

// GetVideo returns a video with counts, and viewer flags when viewer is set.
// Unpublished videos are returned only to their creator or an admin.
func (s *VideoService) GetVideo(ctx context.Context, id domain.VideoID, viewer *domain.Viewer) (*domain.VideoSummary, error) {
	var viewerID domain.UserID
	if viewer != nil {
		viewerID = viewer.ID
	}

	v, err := s.store.GetVideo(ctx, id, viewerID)
	if err != nil {
		return nil, domain.NewVideoError(id, "get video", err)
	}
	if !v.VisibleTo(viewer) {
		return nil, domain.NewVideoError(id, "get video", domain.ErrForbidden)
	}
	return v, nil
}

// ResolveStream maps a video ID to its storage key. Only published videos
// can be streamed.
func (s *VideoService) ResolveStream(ctx context.Context, id domain.VideoID) (string, error) {
	v, err := s.store.GetVideo(ctx, id, "")
	if err != nil {
		return "", domain.NewVideoError(id, "resolve stream", err)
	}
	if !v.Published {
		return "", domain.NewVideoError(id, "resolve stream", domain.ErrVideoNotFound)
	}
	if v.FileName == "" {
		return "", domain.NewVideoError(id, "resolve stream", domain.ErrMediaNotFound)
	}
	return v.FileName, nil
}

// RecordView schedules a view increment for id. It never blocks.
func (s *VideoService) RecordView(id domain.VideoID) {
	if s.views == nil {
		return
	}
	if !s.views.Record(id) {
		s.logger.Debug("view not recorded", "video_id", id)
	}
}

// ListCategories returns all categories ordered by name.
func (s *VideoService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
