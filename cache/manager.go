// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/urlcache/cacheerr"
	"github.com/staranto/urlcache/fetch"
	"github.com/staranto/urlcache/store"
)

// Config locates the cache directory. The zero value caches under
// os.UserCacheDir()/urlcache.
type Config struct {
	// Namespace names the application's subdirectory. Blank means
	// store.DefaultNamespace.
	Namespace string
	// Root replaces the platform cache root. Entries live in
	// Root/Namespace.
	Root string
}

// Manager serves remote resources from a local directory, fetching them on
// first use. It holds no in-memory index; the directory is the source of
// truth. A Manager is safe for concurrent use. Concurrent misses on the same
// key each fetch and the last write wins, unless WithSingleFlight is set.
type Manager struct {
	namespace string
	store     *store.Store
	source    fetch.Source
	log       log.Interface
	group     *singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithSource replaces the default network Fetcher.
func WithSource(src fetch.Source) Option {
	return func(m *Manager) {
		m.source = src
	}
}

// WithLogger sets the logger used for hit/miss tracing.
func WithLogger(l log.Interface) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSingleFlight collapses concurrent misses for the same key into one
// fetch. The shared fetch keeps running when a caller gives up; each caller
// returns as soon as its own context is done.
func WithSingleFlight() Option {
	return func(m *Manager) {
		m.group = &singleflight.Group{}
	}
}

// New creates the cache directory for cfg and returns a Manager over it.
// It fails with ErrInit when the namespace is not a single path element or
// the directory cannot be resolved or created.
func New(cfg Config, opts ...Option) (*Manager, error) {
	ns, err := store.ValidateNamespace(cfg.Namespace)
	if err != nil {
		return nil, err
	}

	var dir string
	if cfg.Root != "" {
		dir = filepath.Join(cfg.Root, ns)
	} else if dir, err = store.Root(ns); err != nil {
		return nil, err
	}

	s, err := store.New(dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		namespace: ns,
		store:     s,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.source == nil {
		m.source = fetch.New()
	}
	if m.log == nil {
		m.log = log.WithField("namespace", ns)
	}
	return m, nil
}

// Namespace returns the normalized namespace.
func (m *Manager) Namespace() string {
	return m.namespace
}

// Dir returns the absolute cache directory.
func (m *Manager) Dir() string {
	return m.store.Dir()
}

// Key validates in and returns its cache key. No I/O is performed.
func (m *Manager) Key(in Input) (string, error) {
	return in.Key()
}

// Path returns where in is (or would be) cached. No I/O is performed.
func (m *Manager) Path(in Input) (string, error) {
	key, err := in.Key()
	if err != nil {
		return "", err
	}
	return m.store.Path(key), nil
}

// Exists reports whether in is currently cached.
func (m *Manager) Exists(in Input) (bool, error) {
	key, err := in.Key()
	if err != nil {
		return false, err
	}
	return m.store.Exists(key), nil
}

// GetFileData returns the bytes for in, fetching and storing them on a miss.
func (m *Manager) GetFileData(ctx context.Context, in Input) ([]byte, error) {
	data, _, err := m.get(ctx, in, true)
	return data, err
}

// GetFileDataBase64 is GetFileData encoded as standard base64.
func (m *Manager) GetFileDataBase64(ctx context.Context, in Input) (string, error) {
	data, err := m.GetFileData(ctx, in)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GetFilePath returns the path of the cached file for in, fetching and
// storing it on a miss.
func (m *Manager) GetFilePath(ctx context.Context, in Input) (string, error) {
	_, p, err := m.get(ctx, in, false)
	return p, err
}

// InvalidateCache removes the cached file for in. Removing an absent entry
// succeeds.
func (m *Manager) InvalidateCache(_ context.Context, in Input) error {
	key, err := in.Key()
	if err != nil {
		return err
	}
	if err := m.store.Delete(key); err != nil {
		return err
	}
	m.log.WithField("key", short(key)).Debug("invalidated")
	return nil
}

// RefreshCache drops any cached copy of in, fetches it again and returns
// the new path. It always fetches.
func (m *Manager) RefreshCache(ctx context.Context, in Input) (string, error) {
	key, err := in.Key()
	if err != nil {
		return "", err
	}
	if err := m.store.Delete(key); err != nil {
		return "", err
	}
	_, p, err := m.fill(ctx, key, in)
	return p, err
}

// Entries lists the cached files.
func (m *Manager) Entries() ([]store.Entry, error) {
	return m.store.Entries()
}

// Clear invalidates every entry and returns how many were removed.
func (m *Manager) Clear() (int, error) {
	return m.store.Clear()
}

// get runs validate, check, fetch-on-miss, write. wantData controls whether
// a hit reads the file back.
func (m *Manager) get(ctx context.Context, in Input, wantData bool) ([]byte, string, error) {
	key, err := in.Key()
	if err != nil {
		return nil, "", err
	}
	l := m.log.WithField("key", short(key))

	if m.store.Exists(key) {
		p := m.store.Path(key)
		if !wantData {
			l.Debug("cache hit")
			return nil, p, nil
		}
		data, err := m.store.Read(key)
		if err == nil {
			l.Debug("cache hit")
			return data, p, nil
		}
		if !errors.Is(err, cacheerr.ErrNotFound) {
			return nil, "", err
		}
		// Removed between the check and the read; treat as a miss.
	}

	l.Debugf("cache miss: %s", in)
	if m.group == nil {
		return m.fill(ctx, key, in)
	}

	type filled struct {
		data []byte
		path string
	}
	// The shared fetch outlives any one caller; the source's own timeout
	// bounds it.
	fctx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		data, p, err := m.fill(fctx, key, in)
		return filled{data: data, path: p}, err
	})

	select {
	case <-ctx.Done():
		return nil, "", cancelled(ctx.Err(), in)
	case r := <-ch:
		if r.Err != nil {
			return nil, "", r.Err
		}
		if r.Shared {
			l.Debug("shared in-flight fetch")
		}
		f, _ := r.Val.(filled) //nolint:errcheck // always filled when Err is nil
		return f.data, f.path, nil
	}
}

// fill fetches in and writes it under key. The write starts only after the
// whole body has been read, so a failed or cancelled fetch leaves nothing
// behind.
func (m *Manager) fill(ctx context.Context, key string, in Input) ([]byte, string, error) {
	data, err := m.source.Fetch(ctx, fetch.Request{URL: in.Source(), Token: in.Token()})
	if err != nil {
		if cacheerr.KindOf(err) == nil {
			err = cacheerr.New(cacheerr.ErrFetchFailed, "fetch", in.Source(), err)
		}
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", cancelled(err, in)
	}

	p, err := m.store.Write(key, data)
	if err != nil {
		return nil, "", err
	}
	m.log.WithField("key", short(key)).WithField("bytes", len(data)).Debug("stored")
	return data, p, nil
}

// cancelled classifies a context error raised while waiting on a fetch.
func cancelled(err error, in Input) error {
	kind := cacheerr.ErrFetchFailed
	if fetch.IsTimeout(err) {
		kind = cacheerr.ErrTimeout
	}
	return cacheerr.New(kind, "fetch", in.Source(), err)
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
