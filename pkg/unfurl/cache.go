package unfurl

import (
	"context"

	"github.com/rubiojr/edjs/pkg/log"
)

// Cache stores metadata by URL. Get reports false on a miss or an expired
// entry.
type Cache interface {
	Get(ctx context.Context, url string) (*Metadata, bool, error)
	Put(ctx context.Context, url string, meta *Metadata) error
}

// Cached serves metadata from a Cache and falls back to a Fetcher on misses.
// Cache failures are logged and never fail a fetch.
type Cached struct {
	fetcher Fetcher
	cache   Cache
	log     *log.Logger
}

// NewCached wraps f with c.
func NewCached(f Fetcher, c Cache) *Cached {
	return &Cached{fetcher: f, cache: c, log: log.ForService("unfurl")}
}

func (c *Cached) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	u, err := ValidURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := u.String()

	meta, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warnf("link cache lookup for %s: %v", key, err)
	} else if ok {
		c.log.Debugf("link cache hit for %s", key)
		return meta, nil
	}

	meta, err = c.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, meta); err != nil {
		c.log.Warnf("link cache store for %s: %v", key, err)
	}
	return meta, nil
}
