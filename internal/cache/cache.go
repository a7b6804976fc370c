// Package cache holds short-lived copies of assembled feed pages.
package cache

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iconidentify/newsreel/internal/domain"
)

// FeedCache stores feed pages by key. Implementations must be safe for
// concurrent use. Callers treat errors as misses.
type FeedCache interface {
	Get(ctx context.Context, key string) (*domain.FeedPage, bool, error)
	Set(ctx context.Context, key string, page *domain.FeedPage) error
}

// Key derives the cache key for a normalized query. Personalized pages
// are keyed per viewer. Free-form components are escaped so no value can
// contain the ':' separator.
func Key(q domain.FeedQuery) string {
	viewer := "anon"
	if id := q.ViewerID(); id != "" {
		viewer = "u:" + url.QueryEscape(id.String())
	}
	return fmt.Sprintf("feed:%d:%d:%s:%s", q.Page, q.Limit, url.QueryEscape(q.Category), viewer)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.FeedPage, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, *domain.FeedPage) error { return nil }
