package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rubiojr/edjs/pkg/unfurl"
)

// LinkCache keeps fetched link metadata for ttl. It satisfies unfurl.Cache.
type LinkCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ unfurl.Cache = (*LinkCache)(nil)

func NewLinkCache(db *sql.DB, ttl time.Duration) *LinkCache {
	return &LinkCache{db: db, ttl: ttl, now: time.Now}
}

func (c *LinkCache) Get(ctx context.Context, url string) (*unfurl.Metadata, bool, error) {
	var meta unfurl.Metadata
	var fetched int64
	err := c.db.QueryRowContext(ctx,
		"SELECT title, description, image, fetched_at FROM link_cache WHERE url = ?", url).
		Scan(&meta.Title, &meta.Description, &meta.Image, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading link cache: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(time.UnixMilli(fetched)) > c.ttl {
		return nil, false, nil
	}
	return &meta, true, nil
}

func (c *LinkCache) Put(ctx context.Context, url string, meta *unfurl.Metadata) error {
	if meta == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO link_cache (url, title, description, image, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			fetched_at = excluded.fetched_at`,
		url, meta.Title, meta.Description, meta.Image, c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing link cache: %w", err)
	}
	return nil
}

// Prune drops entries older than the TTL and reports how many were removed.
func (c *LinkCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).UnixMilli()
	res, err := c.db.ExecContext(ctx, "DELETE FROM link_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning link cache: %w", err)
	}
	return res.RowsAffected()
}
