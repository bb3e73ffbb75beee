// Package query is a small key-addressed cache for remote reads.
//
// Each key owns one entry holding the last result of its fetcher. Reads are
// single-flight per key, observers are reference counted, entries go stale
// after StaleTime or an explicit Invalidate, and unobserved entries are
// evicted after GCTime.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/blogboard/metrics"
)

// ErrNoFetcher is returned by Fetch when a key has no fetcher to run.
var ErrNoFetcher = errors.New("query: no fetcher registered for key")

// Status is the lifecycle state of a cached key.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "idle"
	}
}

// Fetcher loads the value for a key. The context is owned by the Client, not
// by whoever triggered the fetch.
type Fetcher func(ctx context.Context) (any, error)

// Result is a snapshot of an entry.
type Result struct {
	Key       string
	Status    Status
	Data      any
	Err       error
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// Data returns r.Data as T.
func Data[T any](r Result) (T, bool) {
	v, ok := r.Data.(T)
	return v, ok
}

// Option configures a Client.
type Option func(*Client)

// WithStaleTime sets how long fetched data counts as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithGCTime sets how long an unobserved entry is kept before eviction.
func WithGCTime(d time.Duration) Option {
	return func(c *Client) { c.gcTime = d }
}

// WithLogger sets the logger used for fetch events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records fetches, hits and shared flights.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client is the cache. The zero value is not usable; call New.
type Client struct {
	mu        sync.Mutex
	entries   map[string]*entry
	staleTime time.Duration
	gcTime    time.Duration
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
}

type entry struct {
	key       string
	fetcher   Fetcher
	status    Status
	data      any
	err       error
	updatedAt time.Time
	invalid   bool
	fetching  bool
	gen       uint64
	observers int
	gcTimer   *time.Timer
	changed   chan struct{}
}

// New creates a Client. Defaults: one minute stale time, five minute GC time.
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries:   make(map[string]*entry),
		staleTime: time.Minute,
		gcTime:    5 * time.Minute,
		now:       time.Now,
		log:       zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels in-flight fetches and stops eviction timers.
func (c *Client) Close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
			e.gcTimer = nil
		}
	}
}

// Observe attaches an observer to key. A fetch starts when the entry has no
// data, failed last time, or is stale; fresh data is served without one.
// A nil fetcher reuses the one already registered for key.
func (c *Client) Observe(key string, fetch Fetcher) *Observer {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.observers++
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	if fetch != nil {
		e.fetcher = fetch
	}
	switch {
	case e.fetching:
		// Join the running flight.
		c.countShared(key)
	case c.needsFetchLocked(e):
		c.startFetchLocked(e)
	default:
		c.countHit(key)
	}
	return &Observer{c: c, e: e}
}

// Fetch returns fresh data for key, joining or starting a fetch when needed.
// If ctx ends first the fetch keeps running and its result is cached.
func (c *Client) Fetch(ctx context.Context, key string, fetch Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetcher = fetch
	}
	switch {
	case e.fetching:
		c.countShared(key)
	case e.status == StatusSuccess && !c.staleLocked(e):
		data := e.data
		c.countHit(key)
		c.mu.Unlock()
		return data, nil
	case e.fetcher == nil:
		if e.observers == 0 && e.status == StatusIdle {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, ErrNoFetcher
	default:
		c.startFetchLocked(e)
	}
	c.mu.Unlock()

	r, err := c.wait(ctx, e)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case StatusError:
		return nil, r.Err
	case StatusSuccess:
		return r.Data, nil
	default:
		// The flight was dropped by Invalidate before it produced data.
		return c.Fetch(ctx, key, nil)
	}
}

// Invalidate marks key stale. Observed keys refetch immediately, superseding
// any fetch already in flight; unobserved keys refetch on their next read.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.invalid = true
	if e.fetching {
		// Drop the in-flight result: it may predate the change that caused
		// the invalidation.
		e.gen++
		e.fetching = false
	}
	c.log.Debug().Str("key", key).Int("observers", e.observers).Msg("query invalidated")
	if e.observers > 0 && e.fetcher != nil {
		c.startFetchLocked(e)
		return
	}
	c.notifyLocked(e)
	if e.observers == 0 {
		c.scheduleGCLocked(e)
	}
}

// Peek returns the current snapshot for key without observing it.
func (c *Client) Peek(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return c.resultLocked(e), true
}

// Len reports how many keys are cached.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key, changed: make(chan struct{})}
		c.entries[key] = e
		if c.metrics != nil {
			c.metrics.QueryEntries.Set(float64(len(c.entries)))
		}
	}
	return e
}

func (c *Client) staleLocked(e *entry) bool {
	if e.status != StatusSuccess {
		return false
	}
	return e.invalid || c.now().Sub(e.updatedAt) >= c.staleTime
}

func (c *Client) needsFetchLocked(e *entry) bool {
	if e.fetcher == nil || e.fetching {
		return false
	}
	return e.status != StatusSuccess || c.staleLocked(e)
}

func (c *Client) startFetchLocked(e *entry) {
	e.gen++
	gen := e.gen
	e.fetching = true
	if e.updatedAt.IsZero() {
		e.status = StatusLoading
		e.err = nil
	}
	c.notifyLocked(e)

	key, fetch := e.key, e.fetcher
	c.log.Debug().Str("key", key).Uint64("gen", gen).Msg("query fetch started")
	go func() {
		v, err := fetch(c.ctx)
		c.settle(e, gen, v, err)
	}()
}

func (c *Client) settle(e *entry, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != e.gen {
		c.log.Debug().Str("key", e.key).Uint64("gen", gen).Msg("query result discarded")
		return
	}
	e.fetching = false
	if err != nil {
		e.status = StatusError
		e.err = err
		c.countFetch(e.key, "error")
		c.log.Warn().Err(err).Str("key", e.key).Msg("query fetch failed")
	} else {
		e.status = StatusSuccess
		e.data = v
		e.err = nil
		e.invalid = false
		e.updatedAt = c.now()
		c.countFetch(e.key, "success")
	}
	c.notifyLocked(e)
	if e.observers == 0 {
		c.scheduleGCLocked(e)
	}
}

func (c *Client) scheduleGCLocked(e *entry) {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	e.gcTimer = time.AfterFunc(c.gcTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.entries[e.key] != e || e.observers > 0 || e.fetching {
			return
		}
		delete(c.entries, e.key)
		if c.metrics != nil {
			c.metrics.QueryEntries.Set(float64(len(c.entries)))
		}
		c.log.Debug().Str("key", e.key).Msg("query evicted")
	})
}

// notifyLocked wakes every waiter on e.
func (c *Client) notifyLocked(e *entry) {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (c *Client) resultLocked(e *entry) Result {
	return Result{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		Fetching:  e.fetching,
		Stale:     e.invalid || (e.status == StatusSuccess && c.now().Sub(e.updatedAt) >= c.staleTime),
		UpdatedAt: e.updatedAt,
	}
}

func (c *Client) wait(ctx context.Context, e *entry) (Result, error) {
	for {
		c.mu.Lock()
		if !e.fetching {
			r := c.resultLocked(e)
			c.mu.Unlock()
			return r, nil
		}
		ch := e.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			c.mu.Lock()
			r := c.resultLocked(e)
			c.mu.Unlock()
			return r, ctx.Err()
		}
	}
}

func (c *Client) countFetch(key, result string) {
	if c.metrics != nil {
		c.metrics.QueryFetches.WithLabelValues(metrics.KeyKind(key), result).Inc()
	}
}

func (c *Client) countHit(key string) {
	if c.metrics != nil {
		c.metrics.QueryCacheHits.WithLabelValues(metrics.KeyKind(key)).Inc()
	}
}

func (c *Client) countShared(key string) {
	if c.metrics != nil {
		c.metrics.QuerySharedHits.WithLabelValues(metrics.KeyKind(key)).Inc()
	}
}

// Observer is one subscription to a key. Close it when done.
type Observer struct {
	c    *Client
	e    *entry
	once sync.Once
}

// Result returns the current snapshot.
func (o *Observer) Result() Result {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	return o.c.resultLocked(o.e)
}

// Wait blocks until no fetch is in flight for the key or ctx ends. On ctx
// expiry it returns the current snapshot together with ctx.Err().
func (o *Observer) Wait(ctx context.Context) (Result, error) {
	return o.c.wait(ctx, o.e)
}

// Close detaches the observer. Safe to call more than once.
func (o *Observer) Close() {
	o.once.Do(func() {
		o.c.mu.Lock()
		defer o.c.mu.Unlock()
		o.e.observers--
		if o.e.observers == 0 && !o.e.fetching {
			o.c.scheduleGCLocked(o.e)
		}
	})
}
