package handler

import (
	"log/slog"
	"net/http"

	"github.com/iconidentify/newsreel/internal/service"
)

// CategoryHandler lists feed categories.
type CategoryHandler struct {
	videoSvc *service.VideoService
	logger   *slog.Logger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(videoSvc *service.VideoService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{videoSvc: videoSvc, logger: logger}
}

// CategoriesResponse is the JSON response for GET /api/categories.
type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.videoSvc.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: toCategoryResponses(cats)})
}
