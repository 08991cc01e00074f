// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package asset caches the NexusMods profile picture on disk and refreshes it
// through the helper when it goes stale.
package asset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/mscloader/nexussso/internal/helper"
)

// Defaults.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour
	DefaultTimeout = 10 * time.Second
	// SubDir is created under the updater directory.
	SubDir = "Nexus"
	// Ext is appended to the resource key.
	Ext = ".png"
)

// Entry is a cached file. Entries are snapshots; a refresh produces a new one.
type Entry struct {
	ResourceKey   string
	FilePath      string
	LastWriteTime time.Time
}

// Config configures a Cache.
type Config struct {
	Helper helper.Invoker
	// UpdaterDir is the helper's data directory; files live in
	// <UpdaterDir>/Nexus.
	UpdaterDir   string
	MaxAge       time.Duration
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache maps resource keys to files on disk.
type Cache struct {
	helper  helper.Invoker
	dir     string
	maxAge  time.Duration
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
	now     func() time.Time
	locks   keyedMutex
}

// NewCache creates a Cache. The directory is created on first refresh.
func NewCache(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Helper == nil {
		return nil, oops.Code("ASSET_INVALID_CONFIG").Errorf("helper invoker is required")
	}
	if cfg.UpdaterDir == "" {
		return nil, oops.Code("ASSET_INVALID_CONFIG").Errorf("updater directory is required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Cache{
		helper:  cfg.Helper,
		dir:     filepath.Join(cfg.UpdaterDir, SubDir),
		maxAge:  cfg.MaxAge,
		timeout: cfg.Timeout,
		poll:    cfg.PollInterval,
		logger:  cfg.Logger.With("component", "asset"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the directory holding cached files.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file path for key.
func (c *Cache) Path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", oops.Code("ASSET_INVALID_KEY").With("key", key).Errorf("invalid resource key")
	}
	return filepath.Join(c.dir, key+Ext), nil
}

// Lookup returns the cached entry for key without fetching, or nil if there
// is none. It waits for a running refresh of the same key.
func (c *Cache) Lookup(ctx context.Context, key string) (*Entry, error) {
	path, err := c.Path(key)
	if err != nil {
		return nil, err
	}
	release, err := c.locks.acquire(ctx, key)
	if err != nil {
		return nil, nil //nolint:nilerr // a cancelled wait means nothing to serve
	}
	defer release()
	return stat(key, path), nil
}

// EnsureFresh returns the entry for key, fetching sourceURL first when the
// file is missing or older than the maximum age.
func (c *Cache) EnsureFresh(ctx context.Context, key, sourceURL, apiKey string) (*Entry, error) {
	return c.Refresh(ctx, key, sourceURL, apiKey, false)
}

// Refresh is EnsureFresh with force to fetch regardless of age. The helper
// downloads into a temporary file that replaces the cached one only when the
// fetch completes with data. A fetch that times out or is cancelled is not an
// error: the previous file is returned if there is one, otherwise nil. Only a
// helper spawn failure or an unusable directory is reported as an error.
func (c *Cache) Refresh(ctx context.Context, key, sourceURL, apiKey string, force bool) (*Entry, error) {
	path, err := c.Path(key)
	if err != nil {
		return nil, err
	}

	release, err := c.locks.acquire(ctx, key)
	if err != nil {
		recordFetch(ResultCancelled)
		return nil, nil //nolint:nilerr // cancellation is not fatal for the cache
	}
	defer release()

	log := c.logger.With("resource_key", key)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		recordFetch(ResultError)
		return nil, oops.Code("ASSET_DIR_FAILED").With("dir", c.dir).Wrap(err)
	}

	current := stat(key, path)
	if current != nil && !force {
		if !current.LastWriteTime.Before(c.now().Add(-c.maxAge)) {
			recordFetch(ResultHit)
			return current, nil
		}
		log.InfoContext(ctx, "refreshing stale asset", "last_write", current.LastWriteTime)
	}

	if sourceURL == "" {
		log.WarnContext(ctx, "asset has no source url")
		recordFetch(ResultSkipped)
		return current, nil
	}

	tmp, err := c.tempFile(key)
	if err != nil {
		recordFetch(ResultError)
		return nil, err
	}
	defer func() { _ = os.Remove(tmp) }()

	out, err := c.helper.Invoke(ctx, helper.Invocation{
		Args:         []string{helper.CommandGetFile, sourceURL, tmp, apiKey},
		Timeout:      c.timeout,
		PollInterval: c.poll,
	})
	if err != nil {
		recordFetch(ResultError)
		return nil, err
	}

	switch out.Status {
	case helper.StatusTimedOut:
		log.WarnContext(ctx, "asset fetch timed out", "timeout", c.timeout)
		recordFetch(ResultTimeout)
	case helper.StatusCancelled:
		log.InfoContext(ctx, "asset fetch cancelled")
		recordFetch(ResultCancelled)
	default:
		if !written(tmp) {
			log.WarnContext(ctx, "helper produced no asset file")
			recordFetch(ResultMissing)
			break
		}
		if err := os.Chmod(tmp, 0o644); err != nil {
			recordFetch(ResultError)
			return nil, oops.Code("ASSET_WRITE_FAILED").With("path", tmp).Wrap(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			recordFetch(ResultError)
			return nil, oops.Code("ASSET_WRITE_FAILED").With("path", path).Wrap(err)
		}
		recordFetch(ResultFetched)
		return stat(key, path), nil
	}

	return stat(key, path), nil
}

// tempFile reserves the download target next to the cached file so the
// helper never writes the live path.
func (c *Cache) tempFile(key string) (string, error) {
	f, err := os.CreateTemp(c.dir, "."+key+".*"+Ext)
	if err != nil {
		return "", oops.Code("ASSET_DIR_FAILED").With("dir", c.dir).Wrap(err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", oops.Code("ASSET_DIR_FAILED").With("dir", c.dir).Wrap(err)
	}
	return name, nil
}

func written(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func stat(key, path string) *Entry {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	return &Entry{ResourceKey: key, FilePath: path, LastWriteTime: info.ModTime()}
}
