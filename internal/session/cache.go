// Package session provides an in-process cache for the authenticated session,
// so the many UI components asking "who am I" do not each trigger a network
// round trip. The cache serves stale data while revalidating in the
// background and never lets a refresh failure escape to callers that still
// hold a good value.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"entrenafit/coaching-app/internal/domain"

	"golang.org/x/sync/singleflight"
)

// Defaults: entries live 15 minutes and are refreshed in the background once
// they are within 2 minutes of expiry.
const (
	DefaultTTL           = 15 * time.Minute
	DefaultRefreshMargin = 2 * time.Minute
)

var ErrNoSession = errors.New("no hay sesión activa")

// Data is the cached session payload.
type Data struct {
	UserID      string        `json:"userId"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Roles       []domain.Role `json:"roles"`
	PrimaryRole domain.Role   `json:"primaryRole"`
}

// FetchFunc retrieves a fresh session from the backend.
type FetchFunc func(ctx context.Context) (*Data, error)

// Cache memoizes the session with TTL + stale-while-revalidate semantics.
// Construct one per process scope and inject it; there is no package-level
// singleton, so tests can build isolated instances.
type Cache struct {
	fetch         FetchFunc
	ttl           time.Duration
	refreshMargin time.Duration
	now           func() time.Time

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	data        *Data
	lastUpdated time.Time
	refreshing  bool
	errorCount  int
	disposed    bool
}

// NewCache builds a session cache around fetch. Non-positive durations fall
// back to the defaults.
func NewCache(fetch FetchFunc, ttl, refreshMargin time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if refreshMargin <= 0 || refreshMargin >= ttl {
		refreshMargin = DefaultRefreshMargin
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		fetch:         fetch,
		ttl:           ttl,
		refreshMargin: refreshMargin,
		now:           time.Now,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Get returns the cached session, fetching synchronously only when the cache
// is empty or fully expired. A cache entry past the refresh threshold is
// served as-is while a background refetch runs; concurrent callers during a
// fetch share one in-flight request.
func (c *Cache) Get(ctx context.Context) (*Data, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.data != nil {
		age := c.now().Sub(c.lastUpdated)
		if age < c.ttl {
			data := c.data
			if age >= c.ttl-c.refreshMargin && !c.refreshing {
				c.refreshing = true
				go c.refresh()
			}
			c.mu.Unlock()
			return data, nil
		}
	}
	c.mu.Unlock()

	// Empty or expired: block on a deduplicated fetch.
	v, err, _ := c.group.Do("session", func() (interface{}, error) {
		data, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(data)
		return data, nil
	})
	if err != nil {
		c.mu.Lock()
		c.errorCount++
		stale := c.data
		c.mu.Unlock()
		// Expired-but-present data still beats an error.
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}
	return v.(*Data), nil
}

// MarkVisible is the tab-visibility hint: when the user returns to the app
// and the cache is already past the refresh threshold, revalidate eagerly.
func (c *Cache) MarkVisible() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.data == nil || c.refreshing {
		return
	}
	if c.now().Sub(c.lastUpdated) >= c.ttl-c.refreshMargin {
		c.refreshing = true
		go c.refresh()
	}
}

// Invalidate drops the cached session, e.g. after logout or a role change.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.lastUpdated = time.Time{}
}

// Dispose stops background activity and empties the cache.
func (c *Cache) Dispose() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.data = nil
}

// ErrorCount reports how many refreshes have failed since construction.
func (c *Cache) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorCount
}

// refresh revalidates in the background. A failure keeps the last good value;
// it never propagates to callers.
func (c *Cache) refresh() {
	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	v, err, _ := c.group.Do("session", func() (interface{}, error) {
		return c.fetch(c.ctx)
	})
	if err != nil {
		c.mu.Lock()
		c.errorCount++
		c.mu.Unlock()
		log.Printf("WARN: session refresh failed, serving cached session: %v", err)
		return
	}
	c.store(v.(*Data))
}

func (c *Cache) store(data *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.data = data
	c.lastUpdated = c.now()
}
