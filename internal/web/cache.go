package web

import (
	"context"
	"sync"
	"time"

	"trainingcal/internal/datemath"
	"trainingcal/internal/events"
	appLog "trainingcal/internal/log"
)

// rangeCache keeps fetched results per range for a short TTL so repeated
// navigation over the same weeks does not hit the event service each time.
// Results carrying a fetch error are never cached; the next request retries.
type rangeCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedResult
}

type cachedResult struct {
	res       events.Result
	updatedAt time.Time
}

func newRangeCache(ttl time.Duration, now func() time.Time) *rangeCache {
	return &rangeCache{ttl: ttl, now: now, entries: make(map[string]cachedResult)}
}

func rangeKey(start, end time.Time) string {
	return datemath.DateKey(start) + ".." + datemath.DateKey(end)
}

func (c *rangeCache) get(key string) (events.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.updatedAt) >= c.ttl {
		return events.Result{}, false
	}
	return e.res, true
}

func (c *rangeCache) put(key string, res events.Result) {
	if res.FetchErr != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedResult{res: res, updatedAt: c.now()}
}

func (c *rangeCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// invalidate drops every cached range. Called after mutations.
func (c *rangeCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedResult)
}

// cachedSource is the Fetcher handed to per-request controllers.
type cachedSource struct {
	cache  *rangeCache
	source *events.Source
}

func (c cachedSource) Fetch(ctx context.Context, start, end time.Time) events.Result {
	key := rangeKey(start, end)
	if res, ok := c.cache.get(key); ok {
		appLog.Debug("range cache hit", "range", key)
		return res
	}
	res := c.source.Fetch(ctx, start, end)
	c.cache.put(key, res)
	return res
}
