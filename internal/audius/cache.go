package audius

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// responseCache keeps raw response bodies keyed by path and query, so a
// cached entry survives host re-resolution. Bodies are decoded afresh on
// every hit. A nil *responseCache is a valid, disabled cache.
type responseCache struct {
	store *gocache.Cache
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		return nil
	}
	return &responseCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *responseCache) get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func (c *responseCache) set(key string, body []byte) {
	if c == nil {
		return
	}
	c.store.SetDefault(key, body)
}
