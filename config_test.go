package blogboard

import (
	"reflect"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.APIAddr != ":3001" || cfg.WebAddr != ":3000" {
		t.Errorf("addrs = %q, %q", cfg.APIAddr, cfg.WebAddr)
	}
	if cfg.APIURL != "http://localhost:3001" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.QueryStaleTime != time.Minute {
		t.Errorf("QueryStaleTime = %v, want 1m", cfg.QueryStaleTime)
	}
	if cfg.QueryGCTime != 5*time.Minute {
		t.Errorf("QueryGCTime = %v, want 5m", cfg.QueryGCTime)
	}
	if cfg.CreateLimit != 10 {
		t.Errorf("CreateLimit = %d, want 10", cfg.CreateLimit)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SITE_NAME", "Env Blog")
	t.Setenv("API_URL", "http://api:9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("QUERY_STALE_TIME", "30s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "Env Blog" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.APIURL != "http://api:9000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.QueryStaleTime != 30*time.Second {
		t.Errorf("QueryStaleTime = %v", cfg.QueryStaleTime)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.WebAddr != ":3000" {
		t.Errorf("WebAddr default not applied: %q", cfg.WebAddr)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RENDER_WAIT", "soon")
	t.Setenv("CREATE_LIMIT", "many")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for malformed values")
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"http://localhost:3000", nil, "http://localhost:3000"},
		{"http://localhost:3000", []string{"blog", "7"}, "http://localhost:3000/blog/7/"},
		{"https://example.com/site/", []string{"feed"}, "https://example.com/site/feed/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
	if got := BlogURL("http://blog.test", 3); got != "http://blog.test/blog/3/" {
		t.Errorf("BlogURL = %q", got)
	}
}
