package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	mw "github.com/iconidentify/newsreel/internal/api/middleware"
	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/service"
)

// FeedHandler serves the paginated video feed.
type FeedHandler struct {
	feedSvc *service.FeedService
	logger  *slog.Logger
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(feedSvc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feedSvc: feedSvc,
		logger:  logger,
	}
}

// PaginationResponse carries the page math for a feed response.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// FeedResponse is the JSON response for GET /api/videos/feed.
type FeedResponse struct {
	Videos     []VideoResponse    `json:"videos"`
	Pagination PaginationResponse `json:"pagination"`
}

// Feed handles GET /api/videos/feed.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Unparseable values fall back to the first page and the default limit;
	// out-of-range numbers are clamped by Normalize.
	page, _ := strconv.Atoi(q.Get("page"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = domain.DefaultFeedLimit
	}

	feed, err := h.feedSvc.GetFeedPage(r.Context(), domain.FeedQuery{
		Page:     page,
		Limit:    limit,
		Category: q.Get("category"),
		Viewer:   mw.ViewerFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("get feed failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load feed")
		return
	}

	videos := make([]VideoResponse, 0, len(feed.Videos))
	for _, v := range feed.Videos {
		videos = append(videos, toVideoResponse(v))
	}

	writeJSON(w, http.StatusOK, FeedResponse{
		Videos: videos,
		Pagination: PaginationResponse{
			Page:  feed.Page,
			Limit: feed.Limit,
			Total: feed.Total,
			Pages: feed.Pages,
		},
	})
}
