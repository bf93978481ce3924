// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/staranto/urlcache/async"
	"github.com/staranto/urlcache/cacheerr"
	"github.com/staranto/urlcache/internal/version"
)

// DefaultTimeout bounds a whole fetch, body included.
const DefaultTimeout = 10 * time.Second

// ErrNoSource is the cause attached when a request has nowhere to fetch from.
var ErrNoSource = errors.New("no fetch source")

// Request describes a single retrieval.
type Request struct {
	// URL is the location to read. http, https and s3 schemes are supported.
	URL string
	// Token, when set, is sent as a bearer token.
	Token string
	// Header is merged into the outgoing request. A User-Agent here replaces
	// the default one.
	Header http.Header
}

// Source produces the bytes for a request. Fetcher is the network-backed
// Source; SourceFunc adapts anything else.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) ([]byte, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Fetcher retrieves remote bytes over HTTP(S), or S3 when configured.
type Fetcher struct {
	client    *http.Client
	s3        S3API
	userAgent string
	timeout   time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests. Its Timeout is replaced
// by the fetcher's timeout.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTimeout overrides DefaultTimeout. Values <= 0 are ignored.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithS3 enables s3://bucket/key requests through client.
func WithS3(client S3API) Option {
	return func(f *Fetcher) {
		f.s3 = client
	}
}

// New returns a Fetcher with a 10 second timeout and the default User-Agent.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent: DefaultUserAgent(),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	var c http.Client
	if f.client != nil {
		c = *f.client
	}
	c.Timeout = f.timeout
	f.client = &c

	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent()
	}
	return f
}

// DefaultUserAgent identifies the platform and this module's version.
func DefaultUserAgent() string {
	family := "unix"
	switch runtime.GOOS {
	case "windows":
		family = "windows"
	case "js", "wasip1":
		family = "wasm"
	}
	return fmt.Sprintf("Mozilla/5.0 (%s; %s; %s) urlcache/%s", family, runtime.GOOS, runtime.GOARCH, version.Version)
}

// UserAgent returns the User-Agent sent when a request carries none.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Timeout returns the per-fetch deadline.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch blocks until the full body for req has been read or the fetch
// fails. Failures are classified as cacheerr.ErrFetchFailed or
// cacheerr.ErrTimeout.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if req.URL == "" {
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, ErrNoSource)
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, req)
	case "s3":
		return f.fetchS3(ctx, req, u)
	default:
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
}

// FetchAsync runs Fetch on its own goroutine. Semantics and errors are
// identical to Fetch.
func (f *Fetcher) FetchAsync(ctx context.Context, req Request) <-chan async.Result[[]byte] {
	return async.Run(ctx, func(ctx context.Context) ([]byte, error) {
		return f.Fetch(ctx, req)
	})
}

func (f *Fetcher) fetchHTTP(ctx context.Context, req Request) ([]byte, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", f.userAgent)
	}
	if req.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := f.client.Do(hreq)
	if err != nil {
		return nil, classify(req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // best-effort drain for connection reuse
		e := cacheerr.Status("fetch", req.URL, resp.StatusCode)
		e.Err = errors.New(resp.Status)
		return nil, e
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(req.URL, fmt.Errorf("failed to read response: %w", err))
	}
	return body, nil
}

// classify maps a transport error onto ErrTimeout or ErrFetchFailed.
func classify(input string, err error) error {
	if IsTimeout(err) {
		return cacheerr.New(cacheerr.ErrTimeout, "fetch", input, err)
	}
	return cacheerr.New(cacheerr.ErrFetchFailed, "fetch", input, err)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
