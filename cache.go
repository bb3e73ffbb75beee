package blogboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/blogboard/blog"
)

// BlogSource loads the full blog list. *Store satisfies it.
type BlogSource interface {
	ListBlogs(ctx context.Context) ([]blog.Post, error)
}

// BlogCache serves list and single-blog reads from a cached copy of the list.
type BlogCache interface {
	ListBlogs(ctx context.Context) ([]blog.Post, error)
	GetBlog(ctx context.Context, id int64) (blog.Post, error)
	Invalidate(ctx context.Context) error
}

// MemoryCache is an in-process BlogCache with TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	posts   []blog.Post
	fetched time.Time
	ttl     time.Duration
	src     BlogSource
}

// NewMemoryCache creates a MemoryCache backed by src.
func NewMemoryCache(src BlogSource, ttl time.Duration) *MemoryCache {
	return &MemoryCache{src: src, ttl: ttl}
}

func (c *MemoryCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
	return nil
}

// ListBlogs returns the cached list, reloading it when expired. It tries a
// read lock first and only takes the write lock to reload.
func (c *MemoryCache) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.src.ListBlogs(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}

// GetBlog returns a single blog from the cached list.
func (c *MemoryCache) GetBlog(ctx context.Context, id int64) (blog.Post, error) {
	posts, err := c.ListBlogs(ctx)
	if err != nil {
		return blog.Post{}, err
	}
	return findPost(posts, id)
}

// RedisCache keeps the JSON-encoded list in Redis so several API instances
// share one copy. A Redis failure falls back to the source. Concurrent misses
// within one instance share a single load.
type RedisCache struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	src   BlogSource
	log   zerolog.Logger
	loads singleflight.Group
}

// RedisListKey is the Redis key holding the encoded list.
const RedisListKey = "blogs"

// NewRedisCache creates a RedisCache over an existing client.
func NewRedisCache(rdb *redis.Client, src BlogSource, ttl time.Duration) *RedisCache {
	return &RedisCache{
		rdb: rdb,
		key: RedisListKey,
		ttl: ttl,
		src: src,
		log: log.With().Str("component", "redis_cache").Logger(),
	}
}

// ListBlogs returns the cached list, loading and storing it on a miss.
func (c *RedisCache) ListBlogs(ctx context.Context) ([]blog.Post, error) {
	if posts, ok := c.read(ctx); ok {
		return posts, nil
	}
	// The load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.loads.Do(c.key, func() (any, error) {
		if posts, ok := c.read(loadCtx); ok {
			return posts, nil
		}
		return c.load(loadCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]blog.Post), nil
}

func (c *RedisCache) read(ctx context.Context) ([]blog.Post, bool) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var posts []blog.Post
		if err := json.Unmarshal(raw, &posts); err == nil {
			if posts == nil {
				posts = []blog.Post{}
			}
			return posts, true
		}
		c.log.Warn().Err(err).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("cache read failed")
	}
	return nil, false
}

func (c *RedisCache) load(ctx context.Context) ([]blog.Post, error) {
	posts, err := c.src.ListBlogs(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	if b, err := json.Marshal(posts); err == nil {
		if err := c.rdb.Set(ctx, c.key, b, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return posts, nil
}

// GetBlog returns a single blog from the cached list.
func (c *RedisCache) GetBlog(ctx context.Context, id int64) (blog.Post, error) {
	posts, err := c.ListBlogs(ctx)
	if err != nil {
		return blog.Post{}, err
	}
	return findPost(posts, id)
}

// Invalidate deletes the cached list. A load already in flight may predate
// the change, so later callers start a new one.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	c.loads.Forget(c.key)
	return c.rdb.Del(ctx, c.key).Err()
}

func findPost(posts []blog.Post, id int64) (blog.Post, error) {
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return blog.Post{}, ErrNotFound
}
