package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iconidentify/newsreel/internal/domain"
)

// UpsertUser implements CatalogWriter.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u domain.Creator, role domain.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, avatar, role) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, avatar = excluded.avatar, role = excluded.role`,
		string(u.ID), u.Name, u.Avatar, string(role))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpsertCategory implements CatalogWriter.
func (s *SQLiteStore) UpsertCategory(ctx context.Context, c domain.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, color) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, icon = excluded.icon, color = excluded.color`,
		c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// InsertVideo implements CatalogWriter.
func (s *SQLiteStore) InsertVideo(ctx context.Context, v domain.VideoSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO videos (id, title, description, article_url, creator_id, file_name,
			thumbnail_name, published, views, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(v.ID), v.Title, v.Description, v.ArticleURL, string(v.Creator.ID), v.FileName,
		v.ThumbnailName, v.Published, v.Views, createdOrNow(v.CreatedAt).UnixNano())
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	if err := linkCategories(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

func linkCategories(ctx context.Context, tx *sql.Tx, v domain.VideoSummary) error {
	for _, c := range v.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO video_categories (video_id, category_id) VALUES (?, ?)`,
			string(v.ID), c.ID); err != nil {
			return fmt.Errorf("link category %s: %w", c.ID, err)
		}
	}
	return nil
}

// AddLike implements CatalogWriter.
func (s *SQLiteStore) AddLike(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO likes (user_id, target_type, target_id, created_at) VALUES (?, ?, ?, ?)`,
		string(userID), likeTargetVideo, string(videoID), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

// AddComment implements CatalogWriter.
func (s *SQLiteStore) AddComment(ctx context.Context, c Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, video_id, user_id, parent_id, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.VideoID), string(c.UserID), nullableParent(c.ParentID), c.Body,
		createdOrNow(c.CreatedAt).UnixNano())
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// AddBookmark implements CatalogWriter.
func (s *SQLiteStore) AddBookmark(ctx context.Context, userID domain.UserID, videoID domain.VideoID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO bookmarks (user_id, video_id, created_at) VALUES (?, ?, ?)`,
		string(userID), string(videoID), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}
