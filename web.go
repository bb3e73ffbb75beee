package blogboard

import (
	"context"
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eringen/blogboard/client"
	"github.com/eringen/blogboard/metrics"
	"github.com/eringen/blogboard/query"
	"github.com/eringen/blogboard/ui"
	"github.com/eringen/blogboard/views"
)

// Web is the HTML frontend. It reads and writes blogs through the API and
// keeps a shared query cache in front of it.
type Web struct {
	Config   Config
	Echo     *echo.Echo
	Queries  *query.Client
	Loader   *ui.Loader
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	api    ui.BlogAPI
	log    zerolog.Logger
	opened bool
}

// WebOption configures a Web.
type WebOption func(*Web)

// WithBlogAPI replaces the HTTP client built from Config.APIURL.
func WithBlogAPI(api ui.BlogAPI) WebOption {
	return func(w *Web) { w.api = api }
}

// NewWeb creates the web frontend. Call Open or Serve to start it.
func NewWeb(cfg Config, opts ...WebOption) *Web {
	cfg.setDefaults()

	reg := newRegistry()
	w := &Web{
		Config:   cfg,
		Echo:     echo.New(),
		Registry: reg,
		Metrics:  metrics.New(reg),
		log:      log.With().Str("server", "web").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open initializes the API client, query cache, middleware and routes.
func (w *Web) Open() error {
	if w.opened {
		return nil
	}
	if w.Config.SessionSecret == "" {
		return fmt.Errorf("blogboard: SessionSecret is required")
	}
	if w.api == nil {
		w.api = client.New(w.Config.APIURL, client.WithTimeout(w.Config.APITimeout))
	}

	w.Queries = query.New(
		query.WithStaleTime(w.Config.QueryStaleTime),
		query.WithGCTime(w.Config.QueryGCTime),
		query.WithLogger(w.log.With().Str("component", "query").Logger()),
		query.WithMetrics(w.Metrics),
	)
	w.Loader = ui.NewLoader(w.Queries, w.api)

	w.setupMiddleware()
	w.setupRoutes()
	w.opened = true
	return nil
}

// Serve opens the frontend and serves it until ctx is done.
func (w *Web) Serve(ctx context.Context) error {
	if err := w.Open(); err != nil {
		return err
	}
	return serve(ctx, w.Echo, w.Config.WebAddr, w.log)
}

// Close stops the query cache and cancels its in-flight fetches.
func (w *Web) Close() error {
	if w.Queries != nil {
		w.Queries.Close()
	}
	return nil
}

func (w *Web) setupRoutes() {
	e := w.Echo

	e.StaticFS("/public", views.Static())

	e.GET("/", w.handleHome)
	e.POST("/select/:id", w.handleSelect)
	e.GET("/blog/:id", w.handleSelect)
	e.GET("/blog/:id/", w.handleSelect)
	e.POST("/toggle-form", w.handleToggleForm)
	e.POST("/blogs/new", w.handleCreate)
	e.GET("/feed.xml", w.handleFeed)
	e.GET("/sitemap.xml", w.handleSitemap)
	e.GET("/healthz", handleWebHealth)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: w.Registry}))
}

// buildPage gathers the data the root view needs, waiting at most
// RenderWait for queries that are still loading. Whatever has not settled by
// then renders as placeholders that poll for the fragment.
func (w *Web) buildPage(c echo.Context, st ui.ViewState, wantList, wantDetail bool) ui.Page {
	p := ui.Page{
		Title:     w.Config.Name,
		State:     st,
		CSRFToken: CsrfToken(c),
	}
	if st.ShowCreateForm {
		p.Form = ui.NewForm(ui.Draft{}).State()
		return p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), w.Config.RenderWait)
	defer cancel()

	var list, detail *query.Observer
	if wantList {
		list = w.Loader.Blogs()
		defer list.Close()
	}
	if wantDetail {
		if detail = w.Loader.Blog(st.SelectedID); detail != nil {
			defer detail.Close()
		}
	}

	// Both fetches are already running; wait on each within the budget.
	if list != nil {
		r, _ := list.Wait(ctx)
		p.List = ui.NewListState(r, st.SelectedID)
	}
	var dr query.Result
	if detail != nil {
		dr, _ = detail.Wait(ctx)
	}
	p.Detail = ui.NewDetailState(st.SelectedID, dr)
	return p
}
