package blogboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/metrics"
)

// API is the JSON REST server for blogs. It owns the store, the read cache
// and the create limiter.
type API struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Cache    BlogCache
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	limiter *CreateLimiter
	redis   *redis.Client
	log     zerolog.Logger
	opened  bool
}

// APIOption configures an API.
type APIOption func(*API)

// WithAPICache replaces the read cache chosen from Config.
func WithAPICache(c BlogCache) APIOption {
	return func(a *API) { a.Cache = c }
}

// WithAPIStore uses an already opened store. Close still closes it.
func WithAPIStore(s *Store) APIOption {
	return func(a *API) { a.Store = s }
}

// NewAPI creates the API server. Call Open or Serve to start it.
func NewAPI(cfg Config, opts ...APIOption) *API {
	cfg.setDefaults()

	reg := newRegistry()
	a := &API{
		Config:   cfg,
		Echo:     echo.New(),
		Registry: reg,
		Metrics:  metrics.New(reg),
		log:      log.With().Str("server", "api").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open initializes the store, cache, middleware and routes.
func (a *API) Open() error {
	if a.opened {
		return nil
	}
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("blogboard: init store: %w", err)
		}
		a.Store = store
	}

	if a.Cache == nil {
		if a.Config.RedisAddr != "" {
			a.redis = redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr, DB: a.Config.RedisDB})
			a.Cache = NewRedisCache(a.redis, a.Store, a.Config.APICacheTTL)
			a.log.Info().Str("addr", a.Config.RedisAddr).Msg("using redis read cache")
		} else {
			a.Cache = NewMemoryCache(a.Store, a.Config.APICacheTTL)
		}
	}

	a.limiter = NewCreateLimiter(a.Config.CreateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	a.opened = true
	return nil
}

// Serve opens the API and serves it until ctx is done.
func (a *API) Serve(ctx context.Context) error {
	if err := a.Open(); err != nil {
		return err
	}
	return serve(ctx, a.Echo, a.Config.APIAddr, a.log)
}

// Close releases the store, the Redis client and the limiter.
func (a *API) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func (a *API) setupMiddleware() {
	e := a.Echo
	setupCommonMiddleware(e, "api", a.Registry, a.log)
	e.HTTPErrorHandler = a.httpErrorHandler
	e.Validator = NewValidator()
	e.Use(corsMiddleware(a.Config.CORSOrigins))
	e.Use(gzipMiddleware())
}

func (a *API) setupRoutes() {
	e := a.Echo
	e.GET("/blogs", a.handleListBlogs)
	e.GET("/blogs/:id", a.handleGetBlog)
	e.POST("/blogs", a.handleCreateBlog)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: a.Registry}))
}

func (a *API) handleListBlogs(c echo.Context) error {
	posts, err := a.Cache.ListBlogs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *API) handleGetBlog(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid blog id")
	}
	ctx := c.Request().Context()
	post, err := a.Cache.GetBlog(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Another instance may have created it since the list was cached.
		post, err = a.Store.GetBlog(ctx, id)
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *API) handleCreateBlog(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		a.Metrics.BlogsCreated.WithLabelValues("limited").Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	var req blog.CreateRequest
	if err := c.Bind(&req); err != nil {
		a.Metrics.BlogsCreated.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		a.Metrics.BlogsCreated.WithLabelValues("invalid").Inc()
		return err
	}

	ctx := c.Request().Context()
	post, err := a.Store.CreateBlog(ctx, req)
	if err != nil {
		a.Metrics.BlogsCreated.WithLabelValues("failed").Inc()
		return err
	}
	if err := a.Cache.Invalidate(ctx); err != nil {
		a.log.Warn().Err(err).Msg("invalidate read cache")
	}
	a.Metrics.BlogsCreated.WithLabelValues("created").Inc()
	a.log.Info().Int64("id", post.ID).Str("title", post.Title).Msg("blog created")
	return c.JSON(http.StatusCreated, post)
}

func (a *API) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (a *API) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := errorBody{Error: "internal server error"}

	var verr *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
		body = errorBody{Error: "validation failed", Fields: verr.Fields}
	case errors.As(err, &he):
		code = he.Code
		body.Error = fmt.Sprint(he.Message)
	}

	if code >= 500 {
		a.log.Error().Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("server error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}
