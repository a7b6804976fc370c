package repository

import (
	"reflect"
	"strings"
	"testing"

	"github.com/iconidentify/newsreel/internal/domain"
)

func TestDialect_FeedQueryPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		d        dialect
		filter   FeedFilter
		viewer   domain.UserID
		contains []string
		wantArgs []any
	}{
		{
			name:     "postgres anonymous",
			d:        postgresDialect,
			filter:   FeedFilter{Limit: 10, Offset: 20},
			contains: []string{"LIMIT $1 OFFSET $2", "ORDER BY v.created_at DESC, v.seq ASC"},
			wantArgs: []any{10, 20},
		},
		{
			name:     "postgres viewer and category",
			d:        postgresDialect,
			filter:   FeedFilter{Category: "Tech", Limit: 5},
			viewer:   "u1",
			contains: []string{"lv.user_id = $1", "b.user_id = $2", "cat.id = $3", "LOWER($4)", "LIMIT $5 OFFSET $6"},
			wantArgs: []any{"u1", "u1", "Tech", "Tech", 5, 0},
		},
		{
			name:     "sqlite anonymous",
			d:        sqliteDialect,
			filter:   FeedFilter{Limit: 10},
			contains: []string{"LIMIT ? OFFSET ?"},
			wantArgs: []any{10, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := tt.d.feedQuery(tt.filter, tt.viewer)
			for _, s := range tt.contains {
				if !strings.Contains(q, s) {
					t.Errorf("query missing %q:\n%s", s, q)
				}
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
			if tt.viewer == "" && strings.Contains(q, "AS liked") {
				t.Error("anonymous query selects viewer flags")
			}
		})
	}
}

func TestDialect_CountQueryMatchesFeedPredicate(t *testing.T) {
	f := FeedFilter{Category: "cat-tech", Limit: 10}
	q, args := postgresDialect.countQuery(f)
	if !strings.Contains(q, "v.published = TRUE") || !strings.Contains(q, "cat.id = $1") {
		t.Errorf("count query = %s", q)
	}
	if len(args) != 2 {
		t.Errorf("len(args) = %d, want 2", len(args))
	}
}

func TestDialect_CategoriesQuery(t *testing.T) {
	q, args := postgresDialect.categoriesQuery([]domain.VideoID{"a", "b", "c"})
	if !strings.Contains(q, "IN ($1, $2, $3)") {
		t.Errorf("query = %s", q)
	}
	if !reflect.DeepEqual(args, []any{"a", "b", "c"}) {
		t.Errorf("args = %v", args)
	}
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/newsreel?sslmode=disable", "pgx5://u:p@db:5432/newsreel?sslmode=disable"},
		{"postgresql://db/newsreel", "pgx5://db/newsreel"},
		{"pgx5://db/newsreel", "pgx5://db/newsreel"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterFor(t *testing.T) {
	q := domain.FeedQuery{Page: 3, Limit: 10, Category: "Tech"}
	f := FilterFor(q)
	if f.Offset != 20 || f.Limit != 10 || f.Category != "Tech" {
		t.Errorf("FilterFor() = %+v", f)
	}
}
