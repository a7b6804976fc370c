package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iconidentify/newsreel/internal/domain"
)

// ErrorResponse is the JSON body for error responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CreatorResponse is the public identity of a video's creator.
type CreatorResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// CategoryResponse represents a category in list and video responses.
type CategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// VideoResponse represents a video in feed and get responses.
type VideoResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	ArticleURL   string             `json:"articleUrl,omitempty"`
	Creator      CreatorResponse    `json:"creator"`
	Categories   []CategoryResponse `json:"categories"`
	StreamURL    string             `json:"streamUrl"`
	Thumbnail    string             `json:"thumbnail,omitempty"`
	Published    bool               `json:"published"`
	Views        int64              `json:"views"`
	LikeCount    int64              `json:"likeCount"`
	CommentCount int64              `json:"commentCount"`
	IsLiked      bool               `json:"isLiked"`
	IsBookmarked bool               `json:"isBookmarked"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func toCategoryResponses(cats []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color})
	}
	return out
}

func toVideoResponse(v domain.VideoSummary) VideoResponse {
	return VideoResponse{
		ID:          v.ID.String(),
		Title:       v.Title,
		Description: v.Description,
		ArticleURL:  v.ArticleURL,
		Creator: CreatorResponse{
			ID:     v.Creator.ID.String(),
			Name:   v.Creator.Name,
			Avatar: v.Creator.Avatar,
		},
		Categories:   toCategoryResponses(v.Categories),
		StreamURL:    "/api/videos/" + v.ID.String() + "/stream",
		Thumbnail:    v.ThumbnailName,
		Published:    v.Published,
		Views:        v.Views,
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
		IsLiked:      v.Liked,
		IsBookmarked: v.Bookmarked,
		CreatedAt:    v.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
