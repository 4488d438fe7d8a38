// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dotnet/sdk-sub056/internal/logging"
)

// DefaultCacheTTL is how long a fetched feed snapshot is reused.
const DefaultCacheTTL = 6 * time.Hour

type (
	// CatalogProvider supplies a full catalog, including download files.
	CatalogProvider interface {
		Provider
		Catalog(ctx context.Context) (*Catalog, error)
	}

	// ChannelFetcher retrieves raw channel documents. *Client implements it.
	ChannelFetcher interface {
		Channels(ctx context.Context) ([]ChannelDocument, error)
	}

	// Cache keeps the last fetched feed on disk and serves it until the TTL
	// expires. When a refresh fails, a stale snapshot is used instead.
	Cache struct {
		path    string
		ttl     time.Duration
		fetcher ChannelFetcher
		now     func() time.Time
		logger  *log.Logger
	}

	// CacheOption configures a Cache.
	CacheOption func(*Cache)

	// snapshot is the on-disk cache format. It is also accepted by
	// FileProvider, so a cache file doubles as an offline index.
	snapshot struct {
		FetchedAt time.Time         `json:"fetched_at"`
		Channels  []ChannelDocument `json:"channels"`
	}
)

// WithTTL sets the snapshot lifetime. Zero disables reuse.
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *log.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache wraps fetcher with a snapshot at path.
func NewCache(path string, fetcher ChannelFetcher, opts ...CacheOption) *Cache {
	c := &Cache{path: path, ttl: DefaultCacheTTL, fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Index implements Provider.
func (c *Cache) Index(ctx context.Context) (*Index, error) {
	cat, err := c.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Index(), nil
}

// Catalog implements CatalogProvider.
func (c *Cache) Catalog(ctx context.Context) (*Catalog, error) {
	snap, readErr := c.read()
	if readErr == nil && c.now().Sub(snap.FetchedAt) < c.ttl {
		c.logger.Debug("using cached release feed", "path", c.path, "age", c.now().Sub(snap.FetchedAt).Round(time.Second))
		return NewCatalog(snap.Channels...)
	}

	docs, err := c.fetcher.Channels(ctx)
	if err != nil {
		if readErr == nil && ctx.Err() == nil {
			c.logger.Warn("release feed unavailable, using stale cache", "err", err, "fetched_at", snap.FetchedAt)
			return NewCatalog(snap.Channels...)
		}
		return nil, err
	}
	cat, err := NewCatalog(docs...)
	if err != nil {
		return nil, err
	}
	if err := c.write(snapshot{FetchedAt: c.now().UTC(), Channels: docs}); err != nil {
		c.logger.Warn("cannot write release feed cache", "path", c.path, "err", err)
	}
	return cat, nil
}

func (c *Cache) read() (*snapshot, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() // read-only

	var snap snapshot
	if err := decodeJSON(f, &snap); err != nil {
		return nil, err
	}
	if snap.FetchedAt.IsZero() {
		return nil, fmt.Errorf("%w: cache snapshot has no fetched_at", ErrMalformedFeed)
	}
	return &snap, nil
}

func (c *Cache) write(snap snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Invalidate removes the snapshot. A missing snapshot is not an error.
func (c *Cache) Invalidate() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
