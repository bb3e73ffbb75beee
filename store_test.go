package blogboard

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/eringen/blogboard/blog"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_blogs.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRequest(title string, date time.Time) blog.CreateRequest {
	return blog.CreateRequest{
		Title:       title,
		Category:    []string{"tech", " finance "},
		Description: "A test blog description",
		CoverImage:  "https://example.com/cover.jpg",
		Content:     "Test content.",
		Date:        date,
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestCreateAndGetBlog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	created, err := s.CreateBlog(ctx, sampleRequest("Test Blog", date))
	if err != nil {
		t.Fatalf("CreateBlog failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a server-assigned id")
	}
	if want := []string{"TECH", "FINANCE"}; !reflect.DeepEqual(created.Category, want) {
		t.Errorf("Category = %v, want %v", created.Category, want)
	}

	got, err := s.GetBlog(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBlog failed: %v", err)
	}
	if got.Title != "Test Blog" {
		t.Errorf("Title = %q, want %q", got.Title, "Test Blog")
	}
	if !got.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", got.Date, date)
	}
	if !reflect.DeepEqual(got.Category, created.Category) {
		t.Errorf("Category = %v, want %v", got.Category, created.Category)
	}
	if got.CoverImage != "https://example.com/cover.jpg" {
		t.Errorf("CoverImage = %q", got.CoverImage)
	}
}

func TestCreateBlogStampsDate(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	created, err := s.CreateBlog(context.Background(), sampleRequest("No Date", time.Time{}))
	if err != nil {
		t.Fatalf("CreateBlog failed: %v", err)
	}
	if !created.Date.Equal(now) {
		t.Errorf("Date = %v, want %v", created.Date, now)
	}
}

func TestCreateBlogKeepsEmptyCategory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	req := sampleRequest("Trailing", time.Now())
	req.Category = blog.ParseCategories("tech,")

	created, err := s.CreateBlog(ctx, req)
	if err != nil {
		t.Fatalf("CreateBlog failed: %v", err)
	}
	got, err := s.GetBlog(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBlog failed: %v", err)
	}
	if want := []string{"TECH", ""}; !reflect.DeepEqual(got.Category, want) {
		t.Errorf("Category = %q, want %q", got.Category, want)
	}
}

func TestGetBlogNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetBlog(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBlogsEmpty(t *testing.T) {
	s := setupTestStore(t)

	posts, err := s.ListBlogs(context.Background())
	if err != nil {
		t.Fatalf("ListBlogs failed: %v", err)
	}
	if posts == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(posts) != 0 {
		t.Errorf("expected 0 blogs, got %d", len(posts))
	}
}

func TestListBlogsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Oldest", "Newest", "Middle"} {
		offsets := []time.Duration{0, 48 * time.Hour, 24*time.Hour + 500*time.Millisecond}
		if _, err := s.CreateBlog(ctx, sampleRequest(title, base.Add(offsets[i]))); err != nil {
			t.Fatalf("CreateBlog failed: %v", err)
		}
	}

	posts, err := s.ListBlogs(ctx)
	if err != nil {
		t.Fatalf("ListBlogs failed: %v", err)
	}
	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	if want := []string{"Newest", "Middle", "Oldest"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("order = %v, want %v", titles, want)
	}
}
