// Package ui holds the view models of the blog frontend: what the list,
// detail and creation form show for a given cache state, and the cache keys
// they read through.
package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/query"
)

// BlogsKey caches the full collection.
const BlogsKey = "blogs"

// BlogKey caches a single blog.
func BlogKey(id int64) string {
	return "blog:" + strconv.FormatInt(id, 10)
}

// BlogAPI is the REST surface the frontend needs. *client.Client satisfies it.
type BlogAPI interface {
	ListBlogs(ctx context.Context) ([]blog.Post, error)
	GetBlog(ctx context.Context, id int64) (blog.Post, error)
	CreateBlog(ctx context.Context, req blog.CreateRequest) (blog.Post, error)
}

// Loader binds cache keys to API calls.
type Loader struct {
	Queries *query.Client
	API     BlogAPI
}

// NewLoader creates a Loader.
func NewLoader(q *query.Client, api BlogAPI) *Loader {
	return &Loader{Queries: q, API: api}
}

// Blogs observes the collection.
func (l *Loader) Blogs() *query.Observer {
	return l.Queries.Observe(BlogsKey, func(ctx context.Context) (any, error) {
		return l.API.ListBlogs(ctx)
	})
}

// Blog observes one blog. A nil id returns nil and issues no request.
func (l *Loader) Blog(id *int64) *query.Observer {
	if id == nil {
		return nil
	}
	blogID := *id
	return l.Queries.Observe(BlogKey(blogID), func(ctx context.Context) (any, error) {
		return l.API.GetBlog(ctx, blogID)
	})
}

// ListBlogs reads the collection through the cache.
func (l *Loader) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	v, err := l.Queries.Fetch(ctx, BlogsKey, func(ctx context.Context) (any, error) {
		return l.API.ListBlogs(ctx)
	})
	if err != nil {
		return nil, err
	}
	posts, ok := v.([]blog.Post)
	if !ok {
		return nil, fmt.Errorf("ui: unexpected %T cached under %q", v, BlogsKey)
	}
	return posts, nil
}
