package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/newsreel/internal/domain"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is a FeedStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	d  dialect
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, d: sqliteDialect}, nil
}

// ListFeed implements FeedStore.
func (s *SQLiteStore) ListFeed(ctx context.Context, f FeedFilter) ([]domain.VideoSummary, error) {
	return s.list(ctx, f, "")
}

// ListFeedForViewer implements FeedStore.
func (s *SQLiteStore) ListFeedForViewer(ctx context.Context, f FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	return s.list(ctx, f, viewerID)
}

func (s *SQLiteStore) list(ctx context.Context, f FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	query, args := s.d.feedQuery(f, viewerID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	videos := []domain.VideoSummary{}
	for rows.Next() {
		v, err := scanSQLiteSummary(rows, viewerID != "")
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed: %w", err)
	}

	if err := s.loadCategories(ctx, videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// CountFeed implements FeedStore.
func (s *SQLiteStore) CountFeed(ctx context.Context, f FeedFilter) (int, error) {
	query, args := s.d.countQuery(f)
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feed: %w", err)
	}
	return n, nil
}

// GetVideo implements FeedStore.
func (s *SQLiteStore) GetVideo(ctx context.Context, id domain.VideoID, viewerID domain.UserID) (*domain.VideoSummary, error) {
	query, args := s.d.videoQuery(id, viewerID)
	v, err := scanSQLiteSummary(s.db.QueryRowContext(ctx, query, args...), viewerID != "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}

	videos := []domain.VideoSummary{v}
	if err := s.loadCategories(ctx, videos); err != nil {
		return nil, err
	}
	return &videos[0], nil
}

// ListCategories implements FeedStore.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// IncrementViews implements FeedStore.
func (s *SQLiteStore) IncrementViews(ctx context.Context, id domain.VideoID) error {
	query, args := s.d.incrementViewsQuery(id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

// Ping implements FeedStore.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements FeedStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadCategories(ctx context.Context, videos []domain.VideoSummary) error {
	if len(videos) == 0 {
		return nil
	}
	query, args := s.d.categoriesQuery(videoIDs(videos))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query video categories: %w", err)
	}
	defer rows.Close()

	byVideo := make(map[domain.VideoID][]domain.Category)
	for rows.Next() {
		var vid domain.VideoID
		var c domain.Category
		if err := rows.Scan(&vid, &c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return fmt.Errorf("scan video category: %w", err)
		}
		byVideo[vid] = append(byVideo[vid], c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate video categories: %w", err)
	}

	attachCategories(videos, byVideo)
	return nil
}

func scanSQLiteSummary(row rowScanner, withViewer bool) (domain.VideoSummary, error) {
	var createdNanos int64
	v, err := scanSummary(row, withViewer, &createdNanos)
	if err != nil {
		return v, err
	}
	v.CreatedAt = time.Unix(0, createdNanos).UTC()
	return v, nil
}
