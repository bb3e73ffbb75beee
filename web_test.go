package blogboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/client"
	"github.com/eringen/blogboard/ui"
)

type webHarness struct {
	api  *API
	web  *Web
	base string
	hc   *http.Client
}

func webConfig() Config {
	return Config{
		Name:          "Test Blog",
		URL:           "http://blog.test",
		SessionSecret: "test-secret-test-secret-test-sec",
		RenderWait:    2 * time.Second,
	}
}

// newWebHarness runs a real API and a web frontend talking to it over HTTP.
func newWebHarness(t *testing.T) *webHarness {
	t.Helper()
	return newWebHarnessWithAPI(t, Config{})
}

func newWebHarnessWithAPI(t *testing.T, apiCfg Config) *webHarness {
	t.Helper()
	api := newTestAPI(t, apiCfg)
	apiSrv := httptest.NewServer(api.Echo)
	t.Cleanup(apiSrv.Close)

	cfg := webConfig()
	cfg.APIURL = apiSrv.URL
	h := startWeb(t, cfg)
	h.api = api
	return h
}

func startWeb(t *testing.T, cfg Config, opts ...WebOption) *webHarness {
	t.Helper()
	w := NewWeb(cfg, opts...)
	require.NoError(t, w.Open())
	t.Cleanup(func() { w.Close() })

	srv := httptest.NewServer(w.Echo)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &webHarness{web: w, base: srv.URL, hc: &http.Client{Jar: jar}}
}

func (h *webHarness) get(t *testing.T, path string, header ...string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.base+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := h.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func (h *webHarness) csrf(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(h.base)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for _, ck := range h.hc.Jar.Cookies(u) {
			if ck.Name == "_csrf" {
				return ck.Value
			}
		}
		h.get(t, "/healthz")
	}
	t.Fatal("no csrf cookie issued")
	return ""
}

// visitor returns a harness for the same servers with its own cookie jar.
func (h *webHarness) visitor(t *testing.T) *webHarness {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	v := *h
	v.hc = &http.Client{Jar: jar}
	return &v
}

func (h *webHarness) post(t *testing.T, path string, vals url.Values, header ...string) (int, string) {
	t.Helper()
	resp, body := h.send(t, path, vals, header...)
	return resp.StatusCode, body
}

func (h *webHarness) send(t *testing.T, path string, vals url.Values, header ...string) (*http.Response, string) {
	t.Helper()
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("_csrf", h.csrf(t))
	req, err := http.NewRequest(http.MethodPost, h.base+path, strings.NewReader(vals.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := h.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func validForm() url.Values {
	return url.Values{
		"title":       {"My First Blog"},
		"category":    {"tech, finance"},
		"description": {"A short description"},
		"coverImage":  {"https://example.com/cover.jpg"},
		"content":     {"Full content here"},
	}
}

func TestWebOpenRequiresSessionSecret(t *testing.T) {
	w := NewWeb(Config{})
	assert.Error(t, w.Open())
}

func TestWebHomeEmpty(t *testing.T) {
	h := newWebHarness(t)

	code, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<title>Test Blog</title>")
	assert.Contains(t, body, "No blogs found. Create your first blog!")
	assert.Contains(t, body, "Create New Blog")
	assert.Contains(t, body, "Select a blog to view details")
}

func TestWebToggleForm(t *testing.T) {
	h := newWebHarness(t)

	code, body := h.post(t, "/toggle-form", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `id="blog-form"`)
	assert.Contains(t, body, "Cancel")
	assert.NotContains(t, body, `id="blog-list"`)

	_, body = h.post(t, "/toggle-form", nil)
	assert.NotContains(t, body, `id="blog-form"`)
	assert.Contains(t, body, `id="blog-list"`)
}

func TestWebCreateBlog(t *testing.T) {
	h := newWebHarness(t)

	// Prime the frontend cache with the empty list.
	_, body := h.get(t, "/")
	require.Contains(t, body, "No blogs found.")

	h.post(t, "/toggle-form", nil)
	code, body := h.post(t, "/blogs/new", validForm())
	require.Equal(t, http.StatusOK, code)

	assert.Contains(t, body, MsgCreated)
	assert.Contains(t, body, "My First Blog")
	assert.Contains(t, body, ">TECH<")
	assert.Contains(t, body, ">FINANCE<")
	assert.NotContains(t, body, `id="blog-form"`)

	_, body = h.get(t, "/")
	assert.NotContains(t, body, MsgCreated)

	posts, err := h.api.Store.ListBlogs(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"TECH", "FINANCE"}, posts[0].Category)
	assert.WithinDuration(t, time.Now(), posts[0].Date, time.Minute)
}

func TestWebCreateBlogFailureKeepsDraft(t *testing.T) {
	h := newWebHarness(t)
	h.post(t, "/toggle-form", nil)

	vals := validForm()
	vals.Set("coverImage", "not-a-url")
	code, body := h.post(t, "/blogs/new", vals)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, `role="alert">`+client.MsgCreateBlog+"</div>")
	assert.Contains(t, body, `value="My First Blog"`)
	assert.Contains(t, body, `value="tech, finance"`)
	assert.Contains(t, body, "Full content here")
	assert.Contains(t, body, ui.LabelSubmit)

	posts, err := h.api.Store.ListBlogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestWebFormSubmitsThroughHTMX(t *testing.T) {
	h := newWebHarness(t)
	h.post(t, "/toggle-form", nil)

	_, body := h.get(t, "/")
	assert.Contains(t, body, `hx-post="/blogs/new"`)
	assert.Contains(t, body, `hx-disabled-elt="find button"`)
	assert.Contains(t, body, `<span class="label-busy">`+ui.LabelSubmitting+`</span>`)

	resp, body := h.send(t, "/blogs/new", validForm(), "HX-Request", "true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("HX-Redirect"))
	assert.Empty(t, body)

	_, body = h.get(t, "/")
	assert.Contains(t, body, MsgCreated)
	assert.Contains(t, body, "My First Blog")
}

func TestWebHTMXFailureReturnsFormFragment(t *testing.T) {
	h := newWebHarness(t)
	h.post(t, "/toggle-form", nil)

	vals := validForm()
	vals.Set("coverImage", "not-a-url")
	resp, body := h.send(t, "/blogs/new", vals, "HX-Request", "true")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, `<section id="blog-form"`))
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, `role="alert">`+client.MsgCreateBlog+"</div>")
	assert.Contains(t, body, `value="My First Blog"`)
}

func TestWebCreateLimitIsPerVisitor(t *testing.T) {
	h := newWebHarnessWithAPI(t, Config{CreateLimit: 1})
	a, b := h, h.visitor(t)

	code, body := a.post(t, "/blogs/new", validForm(), "X-Forwarded-For", "203.0.113.1")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, MsgCreated)

	code, body = b.post(t, "/blogs/new", validForm(), "X-Forwarded-For", "203.0.113.2")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, MsgCreated)

	code, _ = a.post(t, "/blogs/new", validForm(), "X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	posts, err := h.api.Store.ListBlogs(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestWebSelectShowsDetail(t *testing.T) {
	h := newWebHarness(t)
	p, err := h.api.Store.CreateBlog(context.Background(), blog.CreateRequest{
		Title:       "Picked",
		Category:    []string{"TECH"},
		Description: "desc",
		CoverImage:  "https://example.com/p.jpg",
		Content:     "the whole story",
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	id := strconv.FormatInt(p.ID, 10)

	_, body := h.get(t, "/")
	assert.NotContains(t, body, "the whole story")

	code, body := h.post(t, "/select/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "the whole story")
	assert.Contains(t, body, "March 4, 2024")
	assert.Contains(t, body, `src="https://example.com/p.jpg"`)
	assert.Contains(t, body, `aria-current="true"`)
}

func TestWebDeepLink(t *testing.T) {
	h := newWebHarness(t)
	p, err := h.api.Store.CreateBlog(context.Background(), blog.CreateRequest{
		Title: "Linked", Category: []string{"X"}, Description: "d", CoverImage: "https://example.com/l.jpg", Content: "linked body",
	})
	require.NoError(t, err)

	code, body := h.get(t, "/blog/"+strconv.FormatInt(p.ID, 10)+"/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "linked body")
}

func TestWebDetailError(t *testing.T) {
	h := newWebHarness(t)

	_, body := h.post(t, "/select/999", nil)
	assert.Contains(t, body, "Error loading blog: "+client.MsgFetchBlog)
}

func TestWebListErrorWhenAPIDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	cfg := webConfig()
	cfg.APIURL = down.URL
	h := startWeb(t, cfg)

	code, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Error loading blogs: "+client.MsgFetchBlogs)
}

func TestWebCSRFRequired(t *testing.T) {
	h := newWebHarness(t)

	resp, err := h.hc.PostForm(h.base+"/toggle-form", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebFeed(t *testing.T) {
	h := newWebHarness(t)
	_, err := h.api.Store.CreateBlog(context.Background(), blog.CreateRequest{
		Title: "Feed Item", Category: []string{"NEWS", ""}, Description: "in the feed", CoverImage: "https://example.com/f.jpg", Content: "c",
	})
	require.NoError(t, err)

	code, body := h.get(t, "/feed.xml")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<rss version=\"2.0\">")
	assert.Contains(t, body, "<title>Feed Item</title>")
	assert.Contains(t, body, "<category>NEWS</category>")
	assert.Contains(t, body, "http://blog.test/blog/1/")
}

func TestWebSitemap(t *testing.T) {
	h := newWebHarness(t)
	_, err := h.api.Store.CreateBlog(context.Background(), blog.CreateRequest{
		Title: "Mapped", Category: []string{"X"}, Description: "d", CoverImage: "https://example.com/m.jpg", Content: "c",
		Date: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	code, body := h.get(t, "/sitemap.xml")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<loc>http://blog.test</loc>")
	assert.Contains(t, body, "<loc>http://blog.test/blog/1/</loc>")
	assert.Contains(t, body, "<lastmod>2024-05-06</lastmod>")
}

func TestWebNotFoundPage(t *testing.T) {
	h := newWebHarness(t)

	code, body := h.get(t, "/does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "404")
}

func TestWebStaticAndHealth(t *testing.T) {
	h := newWebHarness(t)

	code, _ := h.get(t, "/public/style.css")
	assert.Equal(t, http.StatusOK, code)

	code, body := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

// gatedAPI blocks ListBlogs until release is closed.
type gatedAPI struct {
	release chan struct{}
	once    sync.Once
}

func (g *gatedAPI) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []blog.Post{{ID: 1, Title: "Slow Post", Category: []string{"TECH"}, Date: time.Now()}}, nil
}

func (g *gatedAPI) GetBlog(context.Context, int64) (blog.Post, error) {
	return blog.Post{}, errors.New(client.MsgFetchBlog)
}

func (g *gatedAPI) CreateBlog(context.Context, blog.CreateRequest) (blog.Post, error) {
	return blog.Post{}, errors.New(client.MsgCreateBlog)
}

func (g *gatedAPI) open() { g.once.Do(func() { close(g.release) }) }

func TestWebPlaceholdersThenFragment(t *testing.T) {
	api := &gatedAPI{release: make(chan struct{})}
	t.Cleanup(api.open)

	cfg := webConfig()
	cfg.RenderWait = 20 * time.Millisecond
	h := startWeb(t, cfg, WithBlogAPI(api))

	_, body := h.get(t, "/")
	assert.Equal(t, ui.PlaceholderRows, strings.Count(body, "card skeleton"))
	assert.Contains(t, body, `hx-get="/?partial=list"`)

	api.open()
	var body2 string
	require.Eventually(t, func() bool {
		req, err := http.NewRequest(http.MethodGet, h.base+"/?partial=list", nil)
		if err != nil {
			return false
		}
		req.Header.Set("HX-Request", "true")
		resp, err := h.hc.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body2 = string(b)
		return resp.StatusCode == http.StatusOK && strings.Contains(body2, "Slow Post")
	}, 2*time.Second, 20*time.Millisecond)
	assert.NotContains(t, body2, "<html")
	assert.NotContains(t, body2, "hx-get")
}

func TestWebFormFailureWithFakeAPI(t *testing.T) {
	api := &gatedAPI{release: make(chan struct{})}
	api.open()
	h := startWeb(t, webConfig(), WithBlogAPI(api))

	code, body := h.post(t, "/blogs/new", validForm())
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, `role="alert">`+client.MsgCreateBlog+"</div>")
	assert.Contains(t, body, `value="My First Blog"`)
}
