package repository

import (
	"fmt"
	"strings"

	"github.com/iconidentify/newsreel/internal/domain"
)

// likeTargetVideo is the likes.target_type value for video likes.
const likeTargetVideo = "video"

// dialect renders the feed queries for one SQL engine. Only placeholder
// syntax differs between the stores.
type dialect struct {
	bind func(n int) string
}

var (
	sqliteDialect   = dialect{bind: func(int) string { return "?" }}
	postgresDialect = dialect{bind: func(n int) string { return fmt.Sprintf("$%d", n) }}
)

// args accumulates positional arguments and hands out their placeholders.
type args struct {
	d    dialect
	vals []any
}

func (a *args) add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.bind(len(a.vals))
}

const summaryColumns = `
		v.id, v.title, v.description, v.article_url, v.file_name, v.thumbnail_name,
		v.published, v.views, v.created_at,
		u.id, u.name, u.avatar,
		(SELECT COUNT(*) FROM likes l
			WHERE l.target_type = '` + likeTargetVideo + `' AND l.target_id = v.id) AS like_count,
		(SELECT COUNT(*) FROM comments c
			WHERE c.video_id = v.id AND c.parent_id IS NULL) AS comment_count`

// viewerColumns adds the per-viewer flags. The viewer ID is bound twice.
func (a *args) viewerColumns(viewerID domain.UserID) string {
	likeArg := a.add(string(viewerID))
	bookmarkArg := a.add(string(viewerID))
	return fmt.Sprintf(`,
		EXISTS (SELECT 1 FROM likes lv
			WHERE lv.target_type = '%s' AND lv.target_id = v.id AND lv.user_id = %s) AS liked,
		EXISTS (SELECT 1 FROM bookmarks b
			WHERE b.video_id = v.id AND b.user_id = %s) AS bookmarked`,
		likeTargetVideo, likeArg, bookmarkArg)
}

// feedWhere is the predicate shared by the list and count queries.
func (a *args) feedWhere(f FeedFilter) string {
	conds := []string{"v.published = TRUE"}
	if f.Category != "" {
		idArg := a.add(f.Category)
		nameArg := a.add(f.Category)
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM video_categories vc
			JOIN categories cat ON cat.id = vc.category_id
			WHERE vc.video_id = v.id AND (cat.id = %s OR LOWER(cat.name) = LOWER(%s)))`,
			idArg, nameArg))
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// feedQuery selects one page. Ties on created_at fall back to insertion
// order so repeated calls return identical pages.
func (d dialect) feedQuery(f FeedFilter, viewerID domain.UserID) (string, []any) {
	a := &args{d: d}
	cols := summaryColumns
	if viewerID != "" {
		cols += a.viewerColumns(viewerID)
	}
	where := a.feedWhere(f)
	limitArg := a.add(f.Limit)
	offsetArg := a.add(f.Offset)

	q := fmt.Sprintf(`
		SELECT %s
		FROM videos v
		JOIN users u ON u.id = v.creator_id
		%s
		ORDER BY v.created_at DESC, v.seq ASC
		LIMIT %s OFFSET %s`, cols, where, limitArg, offsetArg)
	return q, a.vals
}

func (d dialect) countQuery(f FeedFilter) (string, []any) {
	a := &args{d: d}
	where := a.feedWhere(f)
	return "SELECT COUNT(*) FROM videos v " + where, a.vals
}

func (d dialect) videoQuery(id domain.VideoID, viewerID domain.UserID) (string, []any) {
	a := &args{d: d}
	cols := summaryColumns
	if viewerID != "" {
		cols += a.viewerColumns(viewerID)
	}
	idArg := a.add(string(id))
	q := fmt.Sprintf(`
		SELECT %s
		FROM videos v
		JOIN users u ON u.id = v.creator_id
		WHERE v.id = %s`, cols, idArg)
	return q, a.vals
}

// categoriesQuery loads the categories of a page of videos in one round trip.
func (d dialect) categoriesQuery(ids []domain.VideoID) (string, []any) {
	a := &args{d: d}
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = a.add(string(id))
	}
	q := fmt.Sprintf(`
		SELECT vc.video_id, cat.id, cat.name, cat.icon, cat.color
		FROM video_categories vc
		JOIN categories cat ON cat.id = vc.category_id
		WHERE vc.video_id IN (%s)
		ORDER BY cat.name`, strings.Join(ph, ", "))
	return q, a.vals
}

func (d dialect) incrementViewsQuery(id domain.VideoID) (string, []any) {
	a := &args{d: d}
	return "UPDATE videos SET views = views + 1 WHERE id = " + a.add(string(id)), a.vals
}

const listCategoriesQuery = `SELECT id, name, icon, color FROM categories ORDER BY name`

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSummary reads the summaryColumns (and viewer flags when withViewer)
// into a VideoSummary. createdAt receives the raw timestamp column, whose
// representation differs per store.
func scanSummary(row rowScanner, withViewer bool, createdAt any) (domain.VideoSummary, error) {
	var v domain.VideoSummary
	dest := []any{
		&v.ID, &v.Title, &v.Description, &v.ArticleURL, &v.FileName, &v.ThumbnailName,
		&v.Published, &v.Views, createdAt,
		&v.Creator.ID, &v.Creator.Name, &v.Creator.Avatar,
		&v.LikeCount, &v.CommentCount,
	}
	if withViewer {
		dest = append(dest, &v.Liked, &v.Bookmarked)
	}
	err := row.Scan(dest...)
	return v, err
}

// attachCategories distributes loaded categories onto their videos and
// guarantees a non-nil slice on every video.
func attachCategories(videos []domain.VideoSummary, byVideo map[domain.VideoID][]domain.Category) {
	for i := range videos {
		cats := byVideo[videos[i].ID]
		if cats == nil {
			cats = []domain.Category{}
		}
		videos[i].Categories = cats
	}
}

func videoIDs(videos []domain.VideoSummary) []domain.VideoID {
	ids := make([]domain.VideoID, len(videos))
	for i := range videos {
		ids[i] = videos[i].ID
	}
	return ids
}
