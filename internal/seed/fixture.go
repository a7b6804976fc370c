// Package seed loads catalog fixtures described in YAML into a store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/iconidentify/newsreel/internal/domain"
	"github.com/iconidentify/newsreel/internal/repository"
)

// Fixture is the YAML document accepted by Load.
type Fixture struct {
	Users      []User     `yaml:"users"`
	Categories []Category `yaml:"categories"`
	Videos     []Video    `yaml:"videos"`
	Likes      []Edge     `yaml:"likes"`
	Bookmarks  []Edge     `yaml:"bookmarks"`
	Comments   []Comment  `yaml:"comments"`
}

type User struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
	Role   string `yaml:"role"`
}

type Category struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
}

type Video struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	ArticleURL  string    `yaml:"article_url"`
	Creator     string    `yaml:"creator"`
	File        string    `yaml:"file"`
	Thumbnail   string    `yaml:"thumbnail"`
	Published   bool      `yaml:"published"`
	Views       int64     `yaml:"views"`
	CreatedAt   time.Time `yaml:"created_at"`
	Categories  []string  `yaml:"categories"`
}

// Edge links a user to a video (likes, bookmarks).
type Edge struct {
	User  string `yaml:"user"`
	Video string `yaml:"video"`
}

type Comment struct {
	ID     string `yaml:"id"`
	User   string `yaml:"user"`
	Video  string `yaml:"video"`
	Parent string `yaml:"parent"`
	Body   string `yaml:"body"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture and checks that references resolve.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	users := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.ID == "" {
			return fmt.Errorf("user %q: id is required", u.Name)
		}
		users[u.ID] = true
	}
	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		cats[c.ID] = true
	}
	videos := make(map[string]bool, len(f.Videos))
	for _, v := range f.Videos {
		if v.ID == "" {
			return fmt.Errorf("video %q: id is required", v.Title)
		}
		if !users[v.Creator] {
			return fmt.Errorf("video %s: unknown creator %q", v.ID, v.Creator)
		}
		for _, c := range v.Categories {
			if !cats[c] {
				return fmt.Errorf("video %s: unknown category %q", v.ID, c)
			}
		}
		videos[v.ID] = true
	}

	edges := append(append([]Edge{}, f.Likes...), f.Bookmarks...)
	for _, c := range f.Comments {
		edges = append(edges, Edge{User: c.User, Video: c.Video})
	}
	for _, e := range edges {
		if !users[e.User] || !videos[e.Video] {
			return fmt.Errorf("reference %s -> %s does not resolve", e.User, e.Video)
		}
	}
	return nil
}

// Apply writes the fixture in dependency order. Users and categories are
// upserted; the remaining rows are inserted.
func Apply(ctx context.Context, w repository.CatalogWriter, f *Fixture, logger *slog.Logger) error {
	for _, u := range f.Users {
		role := domain.RoleUser
		if u.Role == string(domain.RoleAdmin) {
			role = domain.RoleAdmin
		}
		creator := domain.Creator{ID: domain.UserID(u.ID), Name: u.Name, Avatar: u.Avatar}
		if err := w.UpsertUser(ctx, creator, role); err != nil {
			return err
		}
	}

	for _, c := range f.Categories {
		if err := w.UpsertCategory(ctx, domain.Category(c)); err != nil {
			return err
		}
	}

	for _, v := range f.Videos {
		cats := make([]domain.Category, 0, len(v.Categories))
		for _, id := range v.Categories {
			cats = append(cats, domain.Category{ID: id})
		}
		if err := w.InsertVideo(ctx, domain.VideoSummary{
			ID:            domain.VideoID(v.ID),
			Title:         v.Title,
			Description:   v.Description,
			ArticleURL:    v.ArticleURL,
			Creator:       domain.Creator{ID: domain.UserID(v.Creator)},
			Categories:    cats,
			FileName:      v.File,
			ThumbnailName: v.Thumbnail,
			Published:     v.Published,
			Views:         v.Views,
			CreatedAt:     v.CreatedAt,
		}); err != nil {
			return fmt.Errorf("video %s: %w", v.ID, err)
		}
	}

	for _, l := range f.Likes {
		if err := w.AddLike(ctx, domain.UserID(l.User), domain.VideoID(l.Video)); err != nil {
			return err
		}
	}
	for _, b := range f.Bookmarks {
		if err := w.AddBookmark(ctx, domain.UserID(b.User), domain.VideoID(b.Video)); err != nil {
			return err
		}
	}
	for _, c := range f.Comments {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if err := w.AddComment(ctx, repository.Comment{
			ID:       id,
			VideoID:  domain.VideoID(c.Video),
			UserID:   domain.UserID(c.User),
			ParentID: c.Parent,
			Body:     c.Body,
		}); err != nil {
			return err
		}
	}

	logger.Info("fixture applied",
		"users", len(f.Users),
		"categories", len(f.Categories),
		"videos", len(f.Videos),
		"likes", len(f.Likes),
		"bookmarks", len(f.Bookmarks),
		"comments", len(f.Comments),
	)
	return nil
}
