package repository

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iconidentify/newsreel/internal/domain"
)

// hasCategory mirrors the store's category predicate: a match on ID or,
// case-insensitively, on name.
func hasCategory(v domain.VideoSummary, filter string) bool {
	for _, c := range v.Categories {
		if c.ID == filter || strings.EqualFold(c.Name, filter) {
			return true
		}
	}
	return false
}

// =============================================================================
// Scripted DBTX
// =============================================================================

type dbCall struct {
	sql  string
	args []any
}

type dbResult struct {
	rows [][]any
	err  error
}

// mockDB implements DBTX. Query and QueryRow consume queued results in
// order; an exhausted queue yields no rows.
type mockDB struct {
	calls   []dbCall
	results []dbResult
	tag     pgconn.CommandTag
	execErr error
}

func (m *mockDB) queue(rows ...[]any) *mockDB {
	m.results = append(m.results, dbResult{rows: rows})
	return m
}

func (m *mockDB) queueErr(err error) *mockDB {
	m.results = append(m.results, dbResult{err: err})
	return m
}

func (m *mockDB) record(sql string, args []any) {
	m.calls = append(m.calls, dbCall{sql: sql, args: args})
}

func (m *mockDB) next() dbResult {
	if len(m.results) == 0 {
		return dbResult{}
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r
}

func (m *mockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.record(sql, args)
	return m.tag, m.execErr
}

func (m *mockDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.record(sql, args)
	r := m.next()
	if r.err != nil {
		return nil, r.err
	}
	return &mockRows{rows: r.rows}, nil
}

func (m *mockDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.record(sql, args)
	return mockRow{res: m.next()}
}

type mockRows struct {
	rows [][]any
	pos  int
}

func (r *mockRows) Close()     {}
func (r *mockRows) Err() error { return nil }

func (r *mockRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag("SELECT " + strconv.Itoa(len(r.rows)))
}

func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *mockRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *mockRows) Scan(dest ...any) error { return assign(r.rows[r.pos-1], dest) }
func (r *mockRows) Values() ([]any, error) { return r.rows[r.pos-1], nil }
func (r *mockRows) RawValues() [][]byte    { return nil }
func (r *mockRows) Conn() *pgx.Conn        { return nil }

type mockRow struct {
	res dbResult
}

func (r mockRow) Scan(dest ...any) error {
	if r.res.err != nil {
		return r.res.err
	}
	if len(r.res.rows) == 0 {
		return pgx.ErrNoRows
	}
	return assign(r.res.rows[0], dest)
}

// assign copies scripted values into scan targets, converting between
// named and underlying types the way pgx would.
func assign(src, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(src), len(dest))
	}
	for i, v := range src {
		dv := reflect.ValueOf(dest[i]).Elem()
		sv := reflect.ValueOf(v)
		if sv.Kind() != dv.Kind() || !sv.Type().ConvertibleTo(dv.Type()) {
			return fmt.Errorf("scan column %d: cannot assign %T to %s", i, v, dv.Type())
		}
		dv.Set(sv.Convert(dv.Type()))
	}
	return nil
}

// summaryRow is one feed row in summaryColumns order. flags appends the
// liked and bookmarked columns of an annotated query.
func summaryRow(id string, created time.Time, likes, comments int64, flags ...bool) []any {
	row := []any{
		id, "Title " + id, "About " + id, "https://news.example/" + id, id + ".mp4", id + ".jpg",
		true, int64(3), created,
		string(creator.ID), creator.Name, creator.Avatar,
		likes, comments,
	}
	for _, f := range flags {
		row = append(row, f)
	}
	return row
}

func categoryRow(videoID string, c domain.Category) []any {
	return []any{videoID, c.ID, c.Name, c.Icon, c.Color}
}
