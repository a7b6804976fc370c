package domain

import (
	"math"
	"strings"
)

// Feed pagination bounds.
const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50

	// MaxFeedPage keeps (page-1)*limit within an int for any valid limit.
	MaxFeedPage = math.MaxInt / MaxFeedLimit

	// AllCategories is the sentinel category filter meaning "no filter".
	AllCategories = "all"
)

// FeedQuery selects one page of the feed.
type FeedQuery struct {
	Page     int
	Limit    int
	Category string
	Viewer   *Viewer
}

// Normalize clamps the page into [1, MaxFeedPage] and the limit into
// [1, MaxFeedLimit], and clears the sentinel category. Callers substitute
// DefaultFeedLimit for an absent limit before normalizing.
func (q FeedQuery) Normalize() FeedQuery {
	q.Page = min(max(q.Page, 1), MaxFeedPage)
	q.Limit = min(max(q.Limit, 1), MaxFeedLimit)
	q.Category = strings.TrimSpace(q.Category)
	if strings.EqualFold(q.Category, AllCategories) {
		q.Category = ""
	}
	return q
}

// Offset returns the number of rows skipped before this page.
func (q FeedQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ViewerID returns the requesting viewer's ID, or "" when anonymous.
func (q FeedQuery) ViewerID() UserID {
	if q.Viewer == nil {
		return ""
	}
	return q.Viewer.ID
}

// FeedPage is one page of feed results plus the totals needed for page math.
type FeedPage struct {
	Videos []VideoSummary
	Page   int
	Limit  int
	Total  int
	Pages  int
}

// NewFeedPage assembles a page and computes ceil(total/limit).
func NewFeedPage(videos []VideoSummary, q FeedQuery, total int) *FeedPage {
	if videos == nil {
		videos = []VideoSummary{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return &FeedPage{
		Videos: videos,
		Page:   q.Page,
		Limit:  q.Limit,
		Total:  total,
		Pages:  pages,
	}
}
