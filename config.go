package blogboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API and Web servers.
type Config struct {
	Name string // Site name (default "Blog")
	URL  string // Public URL of the web frontend (default "http://localhost:3000")

	APIAddr string // API listen address (default ":3001")
	WebAddr string // Web listen address (default ":3000")
	APIURL  string // Base URL the web frontend calls (default "http://localhost:3001")

	DatabasePath string // SQLite path (default "data/blogs.db")

	RedisAddr string // Enables the Redis read cache when set
	RedisDB   int

	APICacheTTL    time.Duration // API list cache TTL (default 5m)
	QueryStaleTime time.Duration // Frontend cache staleness (default 1m)
	QueryGCTime    time.Duration // Frontend cache eviction after last observer (default 5m)
	RenderWait     time.Duration // How long a page waits for data before showing placeholders (default 250ms)
	APITimeout     time.Duration // Per-request timeout of the frontend's API client (default 15s)

	SessionSecret string // Required by the web server
	CookieSecure  bool   // Set true for HTTPS

	CORSOrigins []string // Origins allowed to call the API (default "*")
	CreateLimit int      // Creates per IP per minute (default 10)

	LogLevel  string // zerolog level (default "info")
	LogPretty bool   // Console output instead of JSON
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.APIAddr == "" {
		c.APIAddr = ":3001"
	}
	if c.WebAddr == "" {
		c.WebAddr = ":3000"
	}
	if c.APIURL == "" {
		c.APIURL = "http://localhost:3001"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blogs.db"
	}
	if c.APICacheTTL == 0 {
		c.APICacheTTL = 5 * time.Minute
	}
	if c.QueryStaleTime == 0 {
		c.QueryStaleTime = time.Minute
	}
	if c.QueryGCTime == 0 {
		c.QueryGCTime = 5 * time.Minute
	}
	if c.RenderWait == 0 {
		c.RenderWait = 250 * time.Millisecond
	}
	if c.APITimeout == 0 {
		c.APITimeout = 15 * time.Second
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.CreateLimit == 0 {
		c.CreateLimit = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one exists. Unset values fall back to defaults.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Name:          os.Getenv("SITE_NAME"),
		URL:           os.Getenv("SITE_URL"),
		APIAddr:       os.Getenv("API_ADDR"),
		WebAddr:       os.Getenv("WEB_ADDR"),
		APIURL:        os.Getenv("API_URL"),
		DatabasePath:  os.Getenv("DATABASE_PATH"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CORSOrigins:   FilterEmpty(strings.Split(os.Getenv("CORS_ORIGINS"), ",")),
		LogLevel:      os.Getenv("LOG_LEVEL"),
	}

	var errs []error
	cfg.RedisDB = envInt("REDIS_DB", &errs)
	cfg.CreateLimit = envInt("CREATE_LIMIT", &errs)
	cfg.CookieSecure = envBool("COOKIE_SECURE", &errs)
	cfg.LogPretty = envBool("LOG_PRETTY", &errs)
	cfg.APICacheTTL = envDuration("API_CACHE_TTL", &errs)
	cfg.QueryStaleTime = envDuration("QUERY_STALE_TIME", &errs)
	cfg.QueryGCTime = envDuration("QUERY_GC_TIME", &errs)
	cfg.RenderWait = envDuration("RENDER_WAIT", &errs)
	cfg.APITimeout = envDuration("API_TIMEOUT", &errs)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg.setDefaults()
	return cfg, nil
}

func envInt(key string, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func envBool(key string, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return b
}

func envDuration(key string, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}
