package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/iconidentify/newsreel/internal/api/middleware"
	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/service"
	"github.com/iconidentify/newsreel/internal/stream"
)

// VideoHandler handles single-video and streaming requests.
type VideoHandler struct {
	videoSvc *service.VideoService
	streamer *stream.Streamer
	logger   *slog.Logger
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videoSvc *service.VideoService, streamer *stream.Streamer, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
		videoSvc: videoSvc,
		streamer: streamer,
		logger:   logger,
	}
}

// Get handles GET /api/videos/{id}.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := domain.VideoID(chi.URLParam(r, "id"))

	v, err := h.videoSvc.GetVideo(r.Context(), id, mw.ViewerFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVideoNotFound):
			writeError(w, http.StatusNotFound, "Video not found")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "Access denied")
		default:
			h.logger.Error("get video failed", "video_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load video")
		}
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(*v))
}

// Stream handles GET and HEAD /api/videos/{id}/stream.
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := domain.VideoID(chi.URLParam(r, "id"))

	key, err := h.videoSvc.ResolveStream(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrVideoNotFound) || errors.Is(err, domain.ErrMediaNotFound) {
			writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		h.logger.Error("resolve stream failed", "video_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Error streaming video",
			Error:   err.Error(),
		})
		return
	}

	res, err := h.streamer.Serve(w, r, key)
	if err != nil {
		h.logger.Debug("stream ended with error", "video_id", id, "status", res.Status, "error", err)
	}

	// Count only the opening request of a playback so seeks and follow-up
	// chunk requests do not inflate views.
	if res.Started() && r.Method == http.MethodGet && res.Range.Start == 0 {
		h.videoSvc.RecordView(id)
	}
}
