package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iconidentify/newsreel/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBTX is implemented by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a FeedStore backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
	d    dialect
}

// ConnectPostgres creates a connection pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int32, logger *slog.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	)
	return &PostgresStore{pool: pool, db: pool, d: postgresDialect}, nil
}

// NewPostgresStoreWithDB wraps an existing connection or transaction.
func NewPostgresStoreWithDB(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, d: postgresDialect}
}

// MigratePostgres applies the embedded migrations.
func MigratePostgres(dsn string, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// migrateURL rewrites a postgres:// DSN to the pgx5:// scheme the
// migrate driver registers.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// ListFeed implements FeedStore.
func (s *PostgresStore) ListFeed(ctx context.Context, f FeedFilter) ([]domain.VideoSummary, error) {
	return s.list(ctx, f, "")
}

// ListFeedForViewer implements FeedStore.
func (s *PostgresStore) ListFeedForViewer(ctx context.Context, f FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	return s.list(ctx, f, viewerID)
}

func (s *PostgresStore) list(ctx context.Context, f FeedFilter, viewerID domain.UserID) ([]domain.VideoSummary, error) {
	query, args := s.d.feedQuery(f, viewerID)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	videos := []domain.VideoSummary{}
	for rows.Next() {
		v, err := scanPostgresSummary(rows, viewerID != "")
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
func (s *PostgresStore) CountFeed(ctx context.Context, f FeedFilter) (int, error) {
	query, args := s.d.countQuery(f)
	var n int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feed: %w", err)
	}
	return n, nil
}

// GetVideo implements FeedStore.
func (s *PostgresStore) GetVideo(ctx context.Context, id domain.VideoID, viewerID domain.UserID) (*domain.VideoSummary, error) {
	query, args := s.d.videoQuery(id, viewerID)
	v, err := scanPostgresSummary(s.db.QueryRow(ctx, query, args...), viewerID != "")
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, listCategoriesQuery)
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
func (s *PostgresStore) IncrementViews(ctx context.Context, id domain.VideoID) error {
	query, args := s.d.incrementViewsQuery(id)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

// Ping implements FeedStore.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close implements FeedStore.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) loadCategories(ctx context.Context, videos []domain.VideoSummary) error {
	if len(videos) == 0 {
		return nil
	}
	query, args := s.d.categoriesQuery(videoIDs(videos))
	rows, err := s.db.Query(ctx, query, args...)
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

func scanPostgresSummary(row rowScanner, withViewer bool) (domain.VideoSummary, error) {
	var created time.Time
	v, err := scanSummary(row, withViewer, &created)
	if err != nil {
		return v, err
	}
	v.CreatedAt = created.UTC()
	return v, nil
}

// UpsertUser implements CatalogWriter.
func (s *PostgresStore) UpsertUser(ctx context.Context, u domain.Creator, role domain.Role) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, avatar, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, avatar = EXCLUDED.avatar, role = EXCLUDED.role`,
		string(u.ID), u.Name, u.Avatar, string(role))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpsertCategory implements CatalogWriter.
func (s *PostgresStore) UpsertCategory(ctx context.Context, c domain.Category) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO categories (id, name, icon, color) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, icon = EXCLUDED.icon, color = EXCLUDED.color`,
		c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// InsertVideo implements CatalogWriter.
func (s *PostgresStore) InsertVideo(ctx context.Context, v domain.VideoSummary) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO videos (id, title, description, article_url, creator_id, file_name,
			thumbnail_name, published, views, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(v.ID), v.Title, v.Description, v.ArticleURL, string(v.Creator.ID), v.FileName,
		v.ThumbnailName, v.Published, v.Views, createdOrNow(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	for _, c := range v.Categories {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO video_categories (video_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, string(v.ID), c.ID); err != nil {
			return fmt.Errorf("link category %s: %w", c.ID, err)
		}
	}
	return nil
}

// AddLike implements CatalogWriter.
func (s *PostgresStore) AddLike(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO likes (user_id, target_type, target_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, string(userID), likeTargetVideo, string(videoID))
	if err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

// AddComment implements CatalogWriter.
func (s *PostgresStore) AddComment(ctx context.Context, c Comment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO comments (id, video_id, user_id, parent_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, string(c.VideoID), string(c.UserID), nullableParent(c.ParentID), c.Body,
		createdOrNow(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// AddBookmark implements CatalogWriter.
func (s *PostgresStore) AddBookmark(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookmarks (user_id, video_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, string(userID), string(videoID))
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}
