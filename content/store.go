package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

var (
	// ErrSlugImmutable is returned when a save would change the slug of an
	// existing record.
	ErrSlugImmutable = errors.New("content: slug cannot change once published")
	// ErrDuplicateSlug is returned when a save would reuse another record's slug.
	ErrDuplicateSlug = errors.New("content: slug already in use")
	// ErrMultipleRows is returned by MaybeSingle when the query matches more
	// than one row.
	ErrMultipleRows = errors.New("content: query returned more than one row")
)

// Source is the read interface the Fetcher and Resolver depend on.
type Source interface {
	Select(ctx context.Context, q Query) ([]Record, error)
	MaybeSingle(ctx context.Context, q Query) (Record, bool, error)
}

// Store wraps a SQLite database holding the posts table and publishes a
// Change to its hub after every successful write.
type Store struct {
	db  *sql.DB
	hub *Hub
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the live views read while the admin writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, hub: NewHub(), now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close shuts the change hub and closes the database.
func (s *Store) Close() error {
	s.hub.Close()
	return s.db.Close()
}

// Changes returns the hub that receives this store's row changes.
func (s *Store) Changes() *Hub {
	return s.hub
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    excerpt TEXT,
    content TEXT,
    image TEXT,
    author TEXT,
    category TEXT,
    date TEXT,
    featured INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_at ON posts (created_at DESC, id DESC);
`)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`ALTER TABLE posts ADD COLUMN read_time INTEGER;`); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return nil
		}
		return err
	}
	return nil
}

// Select runs q and returns every matching record. Columns left out of the
// projection are zero in the result.
func (s *Store) Select(ctx context.Context, q Query) ([]Record, error) {
	query, args, err := q.Compile()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := q.selected()
	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows, cols)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// MaybeSingle runs q and returns its only row. ok is false when nothing
// matched; more than one match is ErrMultipleRows.
func (s *Store) MaybeSingle(ctx context.Context, q Query) (Record, bool, error) {
	if q.Max == 0 || q.Max > 2 {
		q = q.Limit(2)
	}
	records, err := s.Select(ctx, q)
	if err != nil {
		return Record{}, false, err
	}
	switch len(records) {
	case 0:
		return Record{}, false, nil
	case 1:
		return records[0], true, nil
	default:
		return Record{}, false, ErrMultipleRows
	}
}

// Save inserts r or updates the record with the same id. A new record gets a
// ULID and a creation time; created_at is never changed by an update.
func (s *Store) Save(ctx context.Context, r *Record) (EventType, error) {
	event := EventInsert
	if r.ID != "" {
		var slug string
		err := s.db.QueryRowContext(ctx, `SELECT slug FROM posts WHERE id = ?`, r.ID).Scan(&slug)
		switch {
		case err == nil:
			if slug != r.Slug {
				return "", ErrSlugImmutable
			}
			event = EventUpdate
		case errors.Is(err, sql.ErrNoRows):
		default:
			return "", err
		}
	} else {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	featured := 0
	if r.Featured {
		featured = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, title, slug, excerpt, content, image, author, category, date, read_time, featured, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    excerpt = excluded.excerpt,
    content = excluded.content,
    image = excluded.image,
    author = excluded.author,
    category = excluded.category,
    date = excluded.date,
    read_time = excluded.read_time,
    featured = excluded.featured`,
		r.ID, r.Title, r.Slug,
		nullString(r.Excerpt), nullString(r.Content), nullString(r.Image),
		nullString(r.Author), nullString(r.Category), nullString(r.Date),
		nullInt(r.ReadTime), featured, r.CreatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: posts.slug") {
			return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, r.Slug)
		}
		return "", err
	}
	s.hub.Publish(Change{Table: PostsTable, Type: event, ID: r.ID, Slug: r.Slug})
	return event, nil
}

// Delete removes the record with the given slug. Deleting a missing slug is
// not an error and publishes nothing.
func (s *Store) Delete(ctx context.Context, slug string) error {
	var id string
	err := s.db.QueryRowContext(ctx, `DELETE FROM posts WHERE slug = ? RETURNING id`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	s.hub.Publish(Change{Table: PostsTable, Type: EventDelete, ID: id, Slug: slug})
	return nil
}

func scanRecord(rows *sql.Rows, cols []string) (Record, error) {
	var (
		r                                            Record
		excerpt, body, image, author, category, date sql.NullString
		readTime                                     sql.NullInt64
		featured                                     int
		createdAt                                    int64
	)
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case "id":
			dest[i] = &r.ID
		case "title":
			dest[i] = &r.Title
		case "slug":
			dest[i] = &r.Slug
		case "excerpt":
			dest[i] = &excerpt
		case "content":
			dest[i] = &body
		case "image":
			dest[i] = &image
		case "author":
			dest[i] = &author
		case "category":
			dest[i] = &category
		case "date":
			dest[i] = &date
		case "read_time":
			dest[i] = &readTime
		case "featured":
			dest[i] = &featured
		case "created_at":
			dest[i] = &createdAt
		default:
			return Record{}, fmt.Errorf("unknown column %q", c)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return Record{}, err
	}
	r.Excerpt = excerpt.String
	r.Content = body.String
	r.Image = image.String
	r.Author = author.String
	r.Category = category.String
	r.Date = date.String
	r.ReadTime = int(readTime.Int64)
	r.Featured = featured == 1
	if createdAt != 0 {
		r.CreatedAt = time.Unix(0, createdAt).UTC()
	}
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
