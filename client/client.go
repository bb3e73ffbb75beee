// Package client talks to the blog REST API.
//
// Every failure, whether transport or a non-2xx status, is reported as a
// *Error with a generic message. Response bodies of failed calls are not
// parsed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/blogboard/blog"
)

// Generic messages shown to users.
const (
	MsgFetchBlogs = "Failed to fetch blogs"
	MsgFetchBlog  = "Failed to fetch blog"
	MsgCreateBlog = "Failed to create blog"
)

// Error is the single error kind returned by Client.
type Error struct {
	Message    string
	StatusCode int // 0 for transport failures
	Cause      error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the transport or decode error, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Client is a typed client for /blogs.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

type forwardedForKey struct{}

// WithForwardedFor returns a context whose requests carry ip as
// X-Forwarded-For, so the API attributes them to the original visitor.
func WithForwardedFor(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, forwardedForKey{}, ip)
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3001.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListBlogs fetches GET /blogs.
func (c *Client) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	if err := c.do(ctx, http.MethodGet, "/blogs", nil, &posts, MsgFetchBlogs); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	return posts, nil
}

// GetBlog fetches GET /blogs/{id}.
func (c *Client) GetBlog(ctx context.Context, id int64) (blog.Post, error) {
	var p blog.Post
	if err := c.do(ctx, http.MethodGet, "/blogs/"+strconv.FormatInt(id, 10), nil, &p, MsgFetchBlog); err != nil {
		return blog.Post{}, err
	}
	return p, nil
}

// CreateBlog posts a new blog and returns the stored record.
func (c *Client) CreateBlog(ctx context.Context, req blog.CreateRequest) (blog.Post, error) {
	var p blog.Post
	if err := c.do(ctx, http.MethodPost, "/blogs", req, &p, MsgCreateBlog); err != nil {
		return blog.Post{}, err
	}
	return p, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, msg string) error {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: msg, Cause: fmt.Errorf("encode request: %w", err)}
		}
		rdr = bytes.NewReader(b)
	}

	var req *http.Request
	var err error
	if rdr != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return &Error{Message: msg, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if ip, ok := ctx.Value(forwardedForKey{}).(string); ok {
		req.Header.Set("X-Forwarded-For", ip)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Message: msg, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Message: msg, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Message: msg, StatusCode: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
