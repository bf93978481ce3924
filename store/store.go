// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/staranto/urlcache/cacheerr"
)

const (
	// DefaultNamespace is used when no namespace is configured.
	DefaultNamespace = "urlcache"

	// DirEnv overrides the platform cache root when set and non-empty.
	DirEnv = "URLCACHE_CACHE_DIR"

	tmpPrefix = ".tmp-"
	dirPerm   = 0o755
	filePerm  = 0o600
)

// Entry represents a cached artifact on disk.
type Entry struct {
	Key     string
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is a flat directory of cached files named by their key. The
// filesystem is the only index; Store keeps no state besides the directory.
type Store struct {
	dir string
}

// Namespace normalizes an application namespace, falling back to
// DefaultNamespace when ns is blank.
func Namespace(ns string) string {
	if ns = strings.TrimSpace(ns); ns == "" {
		return DefaultNamespace
	}
	return ns
}

// ValidateNamespace normalizes ns and rejects values that would resolve
// outside the cache root. The result is a single path element.
func ValidateNamespace(ns string) (string, error) {
	ns = Namespace(ns)
	if ns == "." || ns == ".." || strings.ContainsAny(ns, `/\`) {
		return "", cacheerr.New(cacheerr.ErrInit, "namespace", ns, fmt.Errorf("invalid namespace %q", ns))
	}
	return ns, nil
}

// Root resolves the cache directory for namespace.
// Precedence:
//  1. URLCACHE_CACHE_DIR/<namespace>, if set and non-empty
//  2. os.UserCacheDir()/<namespace>
func Root(namespace string) (string, error) {
	ns, err := ValidateNamespace(namespace)
	if err != nil {
		return "", err
	}
	if c, ok := os.LookupEnv(DirEnv); ok && c != "" {
		return filepath.Join(c, ns), nil
	}
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return "", cacheerr.New(cacheerr.ErrInit, "resolve root", ns, err)
	}
	return filepath.Join(base, ns), nil
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, cacheerr.New(cacheerr.ErrInit, "init", dir, errors.New("cache dir is empty"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, cacheerr.New(cacheerr.ErrInit, "init", dir, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, cacheerr.New(cacheerr.ErrInit, "init", abs, fmt.Errorf("failed to create cache directory: %w", err))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, cacheerr.New(cacheerr.ErrInit, "init", abs, err)
	}
	if !info.IsDir() {
		return nil, cacheerr.New(cacheerr.ErrInit, "init", abs, errors.New("not a directory"))
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the entry for key lives. It never touches the
// filesystem.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Exists returns true if a regular file is present for key.
func (s *Store) Exists(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the cached bytes for key.
func (s *Store) Read(key string) ([]byte, error) {
	p := s.Path(key)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cacheerr.New(cacheerr.ErrNotFound, "read", p, nil)
		}
		return nil, cacheerr.New(cacheerr.ErrIO, "read", p, err)
	}
	return b, nil
}

// Write stores data for key and returns its path. Data lands in a temp file
// beside the target and is renamed into place, so readers never see a
// partial entry.
func (s *Store) Write(key string, data []byte) (string, error) {
	p := s.Path(key)
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, fmt.Errorf("failed to create cache directory: %w", err))
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return "", cacheerr.New(cacheerr.ErrIO, "write", p, err)
	}
	return p, nil
}

// Delete removes the entry for key. Deleting an absent entry succeeds.
func (s *Store) Delete(key string) error {
	p := s.Path(key)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cacheerr.New(cacheerr.ErrIO, "delete", p, err)
	}
	return nil
}

// Entries lists every cached file, sorted by key. In-flight temp files are
// skipped.
func (s *Store) Entries() ([]Entry, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cacheerr.New(cacheerr.ErrIO, "list", s.dir, err)
	}

	var entries []Entry
	for _, de := range des {
		if !de.Type().IsRegular() || strings.HasPrefix(de.Name(), tmpPrefix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Key:     de.Name(),
			Path:    filepath.Join(s.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if err := s.Delete(e.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
