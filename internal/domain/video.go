package domain

import "time"

// VideoID is a unique identifier for a video.
type VideoID string

// String returns the string representation of the VideoID.
func (id VideoID) String() string {
	return string(id)
}

// UserID identifies a user (creator or viewer).
type UserID string

// String returns the string representation of the UserID.
func (id UserID) String() string {
	return string(id)
}

// Role is the authorization role carried by a viewer's token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Viewer is the authenticated identity making a request.
type Viewer struct {
	ID   UserID
	Role Role
}

// IsAdmin reports whether the viewer has administrative rights.
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == RoleAdmin
}

// Creator is the user who published a video.
type Creator struct {
	ID     UserID
	Name   string
	Avatar string
}

// Category tags a video for feed filtering.
type Category struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

// VideoSummary is a video as presented in the feed, annotated with
// aggregate counts and, for an identified viewer, personal flags.
type VideoSummary struct {
	ID            VideoID
	Title         string
	Description   string
	ArticleURL    string
	Creator       Creator
	Categories    []Category
	FileName      string
	ThumbnailName string
	Published     bool
	Views         int64
	CreatedAt     time.Time

	// Derived from likes and top-level comments.
	LikeCount    int64
	CommentCount int64

	// Set only on the viewer-annotated path.
	Liked      bool
	Bookmarked bool
}

// VisibleTo reports whether the viewer may see the video. Unpublished
// videos are visible only to their creator or an administrator.
func (v *VideoSummary) VisibleTo(viewer *Viewer) bool {
	if v.Published {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || viewer.ID == v.Creator.ID
}
