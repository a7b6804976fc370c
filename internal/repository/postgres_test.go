package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iconidentify/newsreel/internal/domain"
)

var eastern = time.FixedZone("EST", -5*60*60)

func TestPostgresStore_ListFeedForViewer(t *testing.T) {
	db := (&mockDB{}).
		queue(
			summaryRow("v2", baseTime.Add(time.Minute).In(eastern), 4, 1, true, false),
			summaryRow("v1", baseTime.In(eastern), 0, 0, false, true),
		).
		queue(categoryRow("v2", catTech))
	store := NewPostgresStoreWithDB(db)

	got, err := store.ListFeedForViewer(context.Background(),
		FeedFilter{Category: "Tech", Limit: 5, Offset: 10}, viewer.ID)
	if err != nil {
		t.Fatalf("ListFeedForViewer() error = %v", err)
	}
	if len(db.calls) != 2 {
		t.Fatalf("calls = %d, want feed query plus categories query", len(db.calls))
	}

	feed := db.calls[0]
	wantArgs := []any{string(viewer.ID), string(viewer.ID), "Tech", "Tech", 5, 10}
	if !reflect.DeepEqual(feed.args, wantArgs) {
		t.Errorf("feed args = %v, want %v", feed.args, wantArgs)
	}
	for _, frag := range []string{"lv.user_id = $1", "b.user_id = $2", "cat.id = $3", "LOWER($4)", "LIMIT $5 OFFSET $6"} {
		if !strings.Contains(feed.sql, frag) {
			t.Errorf("feed query missing %q", frag)
		}
	}

	cats := db.calls[1]
	if !reflect.DeepEqual(cats.args, []any{"v2", "v1"}) {
		t.Errorf("categories args = %v, want [v2 v1]", cats.args)
	}
	if !strings.Contains(cats.sql, "IN ($1, $2)") {
		t.Errorf("categories query = %q, want IN ($1, $2)", cats.sql)
	}

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	tests := []struct {
		idx        int
		id         domain.VideoID
		liked      bool
		bookmarked bool
		likes      int64
		comments   int64
		cats       int
	}{
		{0, "v2", true, false, 4, 1, 1},
		{1, "v1", false, true, 0, 0, 0},
	}
	for _, tt := range tests {
		v := got[tt.idx]
		if v.ID != tt.id {
			t.Errorf("[%d].ID = %q, want %q", tt.idx, v.ID, tt.id)
		}
		if v.Liked != tt.liked || v.Bookmarked != tt.bookmarked {
			t.Errorf("%s flags = liked %v bookmarked %v, want %v %v", v.ID, v.Liked, v.Bookmarked, tt.liked, tt.bookmarked)
		}
		if v.LikeCount != tt.likes || v.CommentCount != tt.comments {
			t.Errorf("%s counts = %d/%d, want %d/%d", v.ID, v.LikeCount, v.CommentCount, tt.likes, tt.comments)
		}
		if v.Categories == nil || len(v.Categories) != tt.cats {
			t.Errorf("%s categories = %v, want %d (non-nil)", v.ID, v.Categories, tt.cats)
		}
		if v.CreatedAt.Location() != time.UTC {
			t.Errorf("%s CreatedAt location = %v, want UTC", v.ID, v.CreatedAt.Location())
		}
		if v.Creator != creator {
			t.Errorf("%s Creator = %+v, want %+v", v.ID, v.Creator, creator)
		}
	}
	if got[1].CreatedAt != baseTime {
		t.Errorf("CreatedAt = %v, want %v", got[1].CreatedAt, baseTime)
	}
}

func TestPostgresStore_ListFeed(t *testing.T) {
	tests := []struct {
		name      string
		db        *mockDB
		filter    FeedFilter
		wantIDs   []string
		wantArgs  []any
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "anonymous page",
			db:        (&mockDB{}).queue(summaryRow("v1", baseTime, 0, 0)).queue(),
			filter:    FeedFilter{Limit: 10, Offset: 20},
			wantIDs:   []string{"v1"},
			wantArgs:  []any{10, 20},
			wantCalls: 2,
		},
		{
			name:      "empty page skips categories",
			db:        (&mockDB{}).queue(),
			filter:    FeedFilter{Limit: 10},
			wantIDs:   []string{},
			wantArgs:  []any{10, 0},
			wantCalls: 1,
		},
		{
			name:      "query error",
			db:        (&mockDB{}).queueErr(errors.New("connection reset")),
			filter:    FeedFilter{Limit: 10},
			wantArgs:  []any{10, 0},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "viewer columns absent from anonymous rows",
			db:        (&mockDB{}).queue(summaryRow("v1", baseTime, 0, 0, true, true)),
			filter:    FeedFilter{Limit: 10},
			wantArgs:  []any{10, 0},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewPostgresStoreWithDB(tt.db)
			got, err := store.ListFeed(context.Background(), tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListFeed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(tt.db.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(tt.db.calls), tt.wantCalls)
			}
			if !reflect.DeepEqual(tt.db.calls[0].args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", tt.db.calls[0].args, tt.wantArgs)
			}
			if strings.Contains(tt.db.calls[0].sql, "AS liked") {
				t.Error("anonymous query selects viewer flags")
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("ListFeed() = nil, want non-nil slice")
			}
			if !reflect.DeepEqual(ids(got), tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids(got), tt.wantIDs)
			}
		})
	}
}

func TestPostgresStore_CountFeed(t *testing.T) {
	tests := []struct {
		name     string
		filter   FeedFilter
		wantArgs []any
	}{
		{"all", FeedFilter{}, nil},
		{"category", FeedFilter{Category: "Tech"}, []any{"Tech", "Tech"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := (&mockDB{}).queue([]any{7})
			n, err := NewPostgresStoreWithDB(db).CountFeed(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("CountFeed() error = %v", err)
			}
			if n != 7 {
				t.Errorf("CountFeed() = %d, want 7", n)
			}
			if !reflect.DeepEqual(db.calls[0].args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", db.calls[0].args, tt.wantArgs)
			}
		})
	}
}

func TestPostgresStore_GetVideo(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name       string
		db         *mockDB
		viewer     domain.UserID
		wantArgs   []any
		wantErr    error
		wantLiked  bool
		wantNotErr error
	}{
		{
			name:     "found anonymous",
			db:       (&mockDB{}).queue(summaryRow("v1", baseTime, 2, 0)).queue(categoryRow("v1", catWorld)),
			wantArgs: []any{"v1"},
		},
		{
			name:      "found for viewer",
			db:        (&mockDB{}).queue(summaryRow("v1", baseTime, 2, 0, true, false)).queue(),
			viewer:    viewer.ID,
			wantArgs:  []any{string(viewer.ID), string(viewer.ID), "v1"},
			wantLiked: true,
		},
		{
			name:     "no rows maps to not found",
			db:       &mockDB{},
			wantArgs: []any{"v1"},
			wantErr:  domain.ErrVideoNotFound,
		},
		{
			name:       "driver error is wrapped",
			db:         (&mockDB{}).queueErr(boom),
			wantArgs:   []any{"v1"},
			wantErr:    boom,
			wantNotErr: domain.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewPostgresStoreWithDB(tt.db).GetVideo(context.Background(), "v1", tt.viewer)
			if !reflect.DeepEqual(tt.db.calls[0].args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", tt.db.calls[0].args, tt.wantArgs)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetVideo() error = %v, want %v", err, tt.wantErr)
				}
				if tt.wantNotErr != nil && errors.Is(err, tt.wantNotErr) {
					t.Errorf("GetVideo() error = %v, must not be %v", err, tt.wantNotErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetVideo() error = %v", err)
			}
			if v.ID != "v1" || v.LikeCount != 2 || v.Liked != tt.wantLiked {
				t.Errorf("GetVideo() = %+v", v)
			}
			if v.Categories == nil {
				t.Error("Categories = nil, want non-nil")
			}
		})
	}
}

func TestPostgresStore_IncrementViews(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		db      *mockDB
		wantErr error
	}{
		{"updated", &mockDB{tag: pgconn.NewCommandTag("UPDATE 1")}, nil},
		{"missing video", &mockDB{tag: pgconn.NewCommandTag("UPDATE 0")}, domain.ErrVideoNotFound},
		{"exec error", &mockDB{execErr: boom}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPostgresStoreWithDB(tt.db).IncrementViews(context.Background(), "v1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("IncrementViews() error = %v, want %v", err, tt.wantErr)
			}
			call := tt.db.calls[0]
			if !strings.Contains(call.sql, "WHERE id = $1") {
				t.Errorf("sql = %q, want WHERE id = $1", call.sql)
			}
			if !reflect.DeepEqual(call.args, []any{"v1"}) {
				t.Errorf("args = %v, want [v1]", call.args)
			}
		})
	}
}

func TestPostgresStore_ListCategories(t *testing.T) {
	db := (&mockDB{}).queue(
		[]any{catTech.ID, catTech.Name, catTech.Icon, catTech.Color},
		[]any{catWorld.ID, catWorld.Name, catWorld.Icon, catWorld.Color},
	)
	got, err := NewPostgresStoreWithDB(db).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if !reflect.DeepEqual(got, []domain.Category{catTech, catWorld}) {
		t.Errorf("ListCategories() = %+v", got)
	}
	if db.calls[0].sql != listCategoriesQuery {
		t.Errorf("sql = %q", db.calls[0].sql)
	}
}

func TestPostgresStore_CatalogWrites(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		write func(*PostgresStore) error
		want  [][]any
	}{
		{
			name:  "like",
			write: func(s *PostgresStore) error { return s.AddLike(ctx, viewer.ID, "v1") },
			want:  [][]any{{string(viewer.ID), likeTargetVideo, "v1"}},
		},
		{
			name:  "bookmark",
			write: func(s *PostgresStore) error { return s.AddBookmark(ctx, viewer.ID, "v1") },
			want:  [][]any{{string(viewer.ID), "v1"}},
		},
		{
			name:  "category",
			write: func(s *PostgresStore) error { return s.UpsertCategory(ctx, catTech) },
			want:  [][]any{{catTech.ID, catTech.Name, catTech.Icon, catTech.Color}},
		},
		{
			name: "video links each category",
			write: func(s *PostgresStore) error {
				return s.InsertVideo(ctx, domain.VideoSummary{
					ID: "v1", Creator: creator, CreatedAt: baseTime,
					Categories: []domain.Category{catTech, catWorld},
				})
			},
			want: [][]any{
				{"v1", "", "", "", string(creator.ID), "", "", false, int64(0), baseTime},
				{"v1", catTech.ID},
				{"v1", catWorld.ID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockDB{}
			if err := tt.write(NewPostgresStoreWithDB(db)); err != nil {
				t.Fatalf("write error = %v", err)
			}
			if len(db.calls) != len(tt.want) {
				t.Fatalf("calls = %d, want %d", len(db.calls), len(tt.want))
			}
			for i, want := range tt.want {
				if !reflect.DeepEqual(db.calls[i].args, want) {
					t.Errorf("call %d args = %#v, want %#v", i, db.calls[i].args, want)
				}
			}
		})
	}
}

func TestPostgresStore_PingCloseWithoutPool(t *testing.T) {
	store := NewPostgresStoreWithDB(&mockDB{})
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
