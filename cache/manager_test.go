// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/urlcache/async"
	"github.com/staranto/urlcache/cachekey"
	"github.com/staranto/urlcache/fetch"
)

const imageURL = "https://example.com/fake_image.png"

// countingSource serves fixed bodies by URL and records every fetch.
type countingSource struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	calls   atomic.Int64
	offline atomic.Bool
	lastReq fetch.Request
}

func newCountingSource(bodies map[string]string) *countingSource {
	s := &countingSource{bodies: map[string][]byte{}}
	for k, v := range bodies {
		s.bodies[k] = []byte(v)
	}
	return s
}

func (s *countingSource) Fetch(_ context.Context, req fetch.Request) ([]byte, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	if s.offline.Load() {
		return nil, errors.New("network unreachable")
	}
	b, ok := s.bodies[req.URL]
	if !ok {
		return nil, fmt.Errorf("no body for %q", req.URL)
	}
	return b, nil
}

func (s *countingSource) set(url, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[url] = []byte(body)
}

func newTestManager(t *testing.T, src fetch.Source, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithSource(src)}, opts...)
	m, err := New(Config{Namespace: "myapp", Root: t.TempDir()}, opts...)
	require.NoError(t, err)
	return m
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names
}

func TestNew(t *testing.T) {
	t.Run("root and namespace", func(t *testing.T) {
		root := t.TempDir()
		m, err := New(Config{Namespace: "myapp", Root: root})
		require.NoError(t, err)
		assert.Equal(t, "myapp", m.Namespace())
		assert.Equal(t, filepath.Join(root, "myapp"), m.Dir())
		assert.DirExists(t, m.Dir())
	})

	t.Run("default namespace under env root", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("URLCACHE_CACHE_DIR", root)

		m, err := New(Config{})
		require.NoError(t, err)
		assert.Equal(t, "urlcache", m.Namespace())
		assert.Equal(t, filepath.Join(root, "urlcache"), m.Dir())
	})

	t.Run("unusable root", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := New(Config{Namespace: "myapp", Root: file})
		assert.ErrorIs(t, err, ErrInit)
	})

	t.Run("namespace outside root", func(t *testing.T) {
		base := t.TempDir()
		root := filepath.Join(base, "root")

		for _, ns := range []string{"../escaped", "..", ".", "a/b", `a\b`} {
			_, err := New(Config{Namespace: ns, Root: root})
			assert.ErrorIs(t, err, ErrInit, ns)
		}
		assert.NoDirExists(t, filepath.Join(base, "escaped"))
		assert.NoDirExists(t, root)
	})

	t.Run("independent instances", func(t *testing.T) {
		root := t.TempDir()
		a, err := New(Config{Namespace: "a", Root: root})
		require.NoError(t, err)
		b, err := New(Config{Namespace: "b", Root: root})
		require.NoError(t, err)
		assert.NotEqual(t, a.Dir(), b.Dir())
	})
}

func TestManager_Scenario(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "PNG-DATA"})
	m := newTestManager(t, src)
	ctx := context.Background()

	data, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, []byte("PNG-DATA"), data)
	assert.Equal(t, int64(1), src.calls.Load())

	key := cachekey.Derive(imageURL)
	assert.Equal(t, []string{key}, dirEntries(t, m.Dir()))
	onDisk, err := os.ReadFile(filepath.Join(m.Dir(), key))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	// Second call is served from disk even with the network gone.
	src.offline.Store(true)
	again, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestManager_RoundTripOverHTTP(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("remote bytes"))
	}))

	m, err := New(Config{Namespace: "myapp", Root: t.TempDir()})
	require.NoError(t, err)
	in := URL(server.URL + "/file.bin")

	first, err := m.GetFileData(context.Background(), in)
	require.NoError(t, err)
	server.Close()

	second, err := m.GetFileData(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load())
}

func TestManager_ValidationFirst(t *testing.T) {
	src := newCountingSource(nil)
	m := newTestManager(t, src)
	ctx := context.Background()
	in := URL("not a url")

	_, err := m.GetFileData(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = m.GetFileDataBase64(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = m.GetFilePath(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = m.RefreshCache(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.ErrorIs(t, m.InvalidateCache(ctx, in), ErrInvalidURL)
	_, err = m.Path(in)
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = m.Exists(in)
	assert.ErrorIs(t, err, ErrInvalidURL)

	assert.Equal(t, int64(0), src.calls.Load())
	assert.Empty(t, dirEntries(t, m.Dir()))
}

func TestManager_InvalidateIdempotent(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "x"})
	m := newTestManager(t, src)
	ctx := context.Background()

	_, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)

	require.NoError(t, m.InvalidateCache(ctx, URL(imageURL)))
	ok, err := m.Exists(URL(imageURL))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, m.InvalidateCache(ctx, URL(imageURL)))
	assert.NoError(t, m.InvalidateCache(ctx, URL("https://never.cached/x")))
}

func TestManager_Refresh(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "v1"})
	m := newTestManager(t, src)
	ctx := context.Background()

	_, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)

	src.set(imageURL, "v2")
	p, err := m.RefreshCache(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.calls.Load())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), b)

	// Refresh of an absent entry still fetches.
	require.NoError(t, m.InvalidateCache(ctx, URL(imageURL)))
	_, err = m.RefreshCache(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, int64(3), src.calls.Load())
}

func TestManager_RefreshFailureLeavesAbsent(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "v1"})
	m := newTestManager(t, src)
	ctx := context.Background()

	_, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)

	src.offline.Store(true)
	_, err = m.RefreshCache(ctx, URL(imageURL))
	assert.ErrorIs(t, err, ErrFetchFailed)

	ok, err := m.Exists(URL(imageURL))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_Base64(t *testing.T) {
	body := string([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10})
	src := newCountingSource(map[string]string{imageURL: body})
	m := newTestManager(t, src)
	ctx := context.Background()

	enc, err := m.GetFileDataBase64(ctx, URL(imageURL))
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	data, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestManager_GetFilePath(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "x"})
	m := newTestManager(t, src)
	ctx := context.Background()

	want, err := m.Path(URL(imageURL))
	require.NoError(t, err)
	assert.NoFileExists(t, want)

	p, err := m.GetFilePath(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, want, p)
	assert.FileExists(t, p)

	p2, err := m.GetFilePath(ctx, URL(imageURL))
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestManager_ByID(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "by-id"})
	m := newTestManager(t, src)
	ctx := context.Background()

	in := ID("avatar-42", imageURL).WithToken("secret")
	data, err := m.GetFileData(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []byte("by-id"), data)
	assert.Equal(t, imageURL, src.lastReq.URL)
	assert.Equal(t, "secret", src.lastReq.Token)

	assert.FileExists(t, filepath.Join(m.Dir(), cachekey.Derive("avatar-42")))
	assert.NoFileExists(t, filepath.Join(m.Dir(), cachekey.Derive(imageURL)))

	// The id is never validated as a URL.
	_, err = m.GetFilePath(ctx, ID("not a url", imageURL))
	assert.NoError(t, err)

	_, err = m.GetFileData(ctx, ID(" ", imageURL))
	assert.ErrorIs(t, err, ErrInvalidID)

	require.NoError(t, m.InvalidateCache(ctx, in))
	p, err := m.RefreshCache(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Dir(), cachekey.Derive("avatar-42")), p)
}

func TestManager_ByIDCallerSuppliedBytes(t *testing.T) {
	src := fetch.SourceFunc(func(_ context.Context, req fetch.Request) ([]byte, error) {
		assert.Empty(t, req.URL)
		return []byte("generated"), nil
	})
	m := newTestManager(t, src)

	data, err := m.GetFileData(context.Background(), ID("report-2025", ""))
	require.NoError(t, err)
	assert.Equal(t, []byte("generated"), data)
}

func TestManager_ByIDWithoutSource(t *testing.T) {
	m, err := New(Config{Namespace: "myapp", Root: t.TempDir()})
	require.NoError(t, err)

	_, err = m.GetFileData(context.Background(), ID("orphan", ""))
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, fetch.ErrNoSource)
}

func TestManager_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	m := newTestManager(t, fetch.New(fetch.WithTimeout(50*time.Millisecond)))
	ctx := context.Background()

	_, err := m.GetFileData(ctx, URL(server.URL+"/missing"))
	assert.ErrorIs(t, err, ErrFetchFailed)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusNotFound, ce.StatusCode)

	_, err = m.GetFileData(ctx, URL(server.URL+"/slow"))
	assert.ErrorIs(t, err, ErrTimeout)

	assert.Empty(t, dirEntries(t, m.Dir()), "failed fetches must not leave files")
}

func TestManager_UnclassifiedSourceError(t *testing.T) {
	boom := errors.New("boom")
	m := newTestManager(t, fetch.SourceFunc(func(context.Context, fetch.Request) ([]byte, error) {
		return nil, boom
	}))

	_, err := m.GetFileData(context.Background(), URL(imageURL))
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
}

func TestManager_CancelledFetchWritesNothing(t *testing.T) {
	started := make(chan struct{})
	m := newTestManager(t, fetch.SourceFunc(func(ctx context.Context, _ fetch.Request) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return []byte("late"), nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.GetFileDataAsync(ctx, URL(imageURL))
	<-started
	cancel()

	r := <-ch
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Empty(t, dirEntries(t, m.Dir()))
}

func TestManager_StoreWriteFailure(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "x"})
	m := newTestManager(t, src)

	p, err := m.Path(URL(imageURL))
	require.NoError(t, err)
	// A directory where the file should be is present but not a regular
	// file, so it counts as a miss and the write fails.
	require.NoError(t, os.Mkdir(p, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p, "child"), []byte("x"), 0o600))

	_, err = m.GetFileData(context.Background(), URL(imageURL))
	assert.ErrorIs(t, err, ErrIO)
}

func TestManager_ConcurrentMissesBothFetch(t *testing.T) {
	var calls atomic.Int64
	src := fetch.SourceFunc(func(ctx context.Context, _ fetch.Request) ([]byte, error) {
		n := calls.Add(1)
		// Hold until both callers are inside the fetch.
		deadline := time.After(2 * time.Second)
		for calls.Load() < 2 {
			select {
			case <-deadline:
				return nil, errors.New("second caller never arrived")
			case <-time.After(5 * time.Millisecond):
			}
		}
		return []byte(fmt.Sprintf("body-%d", n)), nil
	})
	m := newTestManager(t, src)

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := m.GetFileData(context.Background(), URL(imageURL))
			assert.NoError(t, err)
			results[i] = b
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(2), calls.Load())
	for _, b := range results {
		assert.Contains(t, [][]byte{[]byte("body-1"), []byte("body-2")}, b)
	}
	onDisk, err := m.GetFileData(context.Background(), URL(imageURL))
	require.NoError(t, err)
	assert.Contains(t, [][]byte{[]byte("body-1"), []byte("body-2")}, onDisk)
}

func TestManager_SingleFlight(t *testing.T) {
	var calls atomic.Int64
	src := fetch.SourceFunc(func(context.Context, fetch.Request) ([]byte, error) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		return []byte("shared"), nil
	})
	m := newTestManager(t, src, WithSingleFlight())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := m.GetFileData(context.Background(), URL(imageURL))
			assert.NoError(t, err)
			assert.Equal(t, []byte("shared"), b)
		}()
	}
	wg.Wait()

	// Allow a second fetch for a caller that raced past the existence check.
	assert.LessOrEqual(t, calls.Load(), int64(2))
}

func TestManager_SingleFlightCallerCancels(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	src := fetch.SourceFunc(func(ctx context.Context, _ fetch.Request) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []byte("shared"), nil
	})
	m := newTestManager(t, src, WithSingleFlight())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := m.GetFileDataAsync(leaderCtx, URL(imageURL))
	<-started
	follower := m.GetFileDataAsync(context.Background(), URL(imageURL))

	cancel()
	r := <-leader
	assert.ErrorIs(t, r.Err, ErrFetchFailed)
	assert.ErrorIs(t, r.Err, context.Canceled)

	close(release)
	got := <-follower
	require.NoError(t, got.Err)
	assert.Equal(t, []byte("shared"), got.Value)
	assert.Equal(t, int64(1), calls.Load())

	p, err := m.Path(URL(imageURL))
	require.NoError(t, err)
	assert.FileExists(t, p)
}

func TestManager_AsyncMatchesBlocking(t *testing.T) {
	src := newCountingSource(map[string]string{imageURL: "async-body"})
	m := newTestManager(t, src)
	ctx := context.Background()
	in := URL(imageURL)

	data, err := async.Await(ctx, m.GetFileDataAsync(ctx, in))
	require.NoError(t, err)
	assert.Equal(t, []byte("async-body"), data)

	enc, err := async.Await(ctx, m.GetFileDataBase64Async(ctx, in))
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), enc)

	p, err := async.Await(ctx, m.GetFilePathAsync(ctx, in))
	require.NoError(t, err)
	want, _ := m.Path(in)
	assert.Equal(t, want, p)

	_, err = async.Await(ctx, m.InvalidateCacheAsync(ctx, in))
	require.NoError(t, err)
	assert.NoFileExists(t, p)

	p, err = async.Await(ctx, m.RefreshCacheAsync(ctx, in))
	require.NoError(t, err)
	assert.FileExists(t, p)

	_, err = async.Await(ctx, m.GetFileDataAsync(ctx, URL("not a url")))
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestManager_EntriesAndClear(t *testing.T) {
	src := newCountingSource(map[string]string{
		"https://a/x": "xx",
		"https://a/y": "yyy",
	})
	m := newTestManager(t, src)
	ctx := context.Background()

	for _, u := range []string{"https://a/x", "https://a/y"} {
		_, err := m.GetFileData(ctx, URL(u))
		require.NoError(t, err)
	}

	entries, err := m.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	n, err := m.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, dirEntries(t, m.Dir()))
}

func TestManager_Logging(t *testing.T) {
	h := memory.New()
	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	src := newCountingSource(map[string]string{imageURL: "x"})
	m := newTestManager(t, src, WithLogger(logger))
	ctx := context.Background()

	_, err := m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)
	_, err = m.GetFileData(ctx, URL(imageURL))
	require.NoError(t, err)

	var msgs []string
	for _, e := range h.Entries {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "cache miss: url:"+imageURL)
	assert.Contains(t, msgs, "stored")
	assert.Contains(t, msgs, "cache hit")
}
