package blogboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/blogboard/blog"
)

// ErrNotFound is returned when a requested blog does not exist.
var ErrNotFound = errors.New("blog not found")

// dateLayout is fixed width so that ORDER BY date sorts chronologically.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Store wraps a SQLite database holding blogs.
type Store struct {
	db  *sql.DB
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
	// WAL lets readers run alongside the single writer; busy_timeout makes
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
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blogs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL,
    date TEXT NOT NULL,
    cover_image TEXT NOT NULL,
    content TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS blogs_date ON blogs(date DESC);
`)
	return err
}

// ListBlogs returns every blog, newest first. The result is never nil.
func (s *Store) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, category, description, date, cover_image, content FROM blogs ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []blog.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetBlog returns one blog by id, or ErrNotFound.
func (s *Store) GetBlog(ctx context.Context, id int64) (blog.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, category, description, date, cover_image, content FROM blogs WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return blog.Post{}, ErrNotFound
	}
	return p, err
}

// CreateBlog stores a new blog. Categories are upper-cased; a zero date is
// replaced with the current time.
func (s *Store) CreateBlog(ctx context.Context, req blog.CreateRequest) (blog.Post, error) {
	p := blog.Post{
		Title:       req.Title,
		Category:    blog.NormalizeCategories(req.Category),
		Description: req.Description,
		Date:        req.Date,
		CoverImage:  req.CoverImage,
		Content:     req.Content,
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	p.Date = p.Date.UTC().Truncate(time.Millisecond)

	cats, err := json.Marshal(p.Category)
	if err != nil {
		return blog.Post{}, fmt.Errorf("encode categories: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO blogs (title, category, description, date, cover_image, content) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Title, string(cats), p.Description, p.Date.Format(dateLayout), p.CoverImage, p.Content)
	if err != nil {
		return blog.Post{}, err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return blog.Post{}, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (blog.Post, error) {
	var p blog.Post
	var cats, date string
	if err := sc.Scan(&p.ID, &p.Title, &cats, &p.Description, &date, &p.CoverImage, &p.Content); err != nil {
		return blog.Post{}, err
	}
	if err := json.Unmarshal([]byte(cats), &p.Category); err != nil {
		return blog.Post{}, fmt.Errorf("blog %d: decode categories: %w", p.ID, err)
	}
	if p.Category == nil {
		p.Category = []string{}
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return blog.Post{}, fmt.Errorf("blog %d: parse date: %w", p.ID, err)
	}
	p.Date = t
	return p, nil
}
