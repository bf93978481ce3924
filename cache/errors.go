// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "github.com/staranto/urlcache/cacheerr"

// Errors re-exported from cacheerr.
var (
	// ErrInvalidURL is returned before any I/O when a URL-mode input is malformed.
	ErrInvalidURL = cacheerr.ErrInvalidURL

	// ErrInvalidID is returned when an id-mode input is blank.
	ErrInvalidID = cacheerr.ErrInvalidID

	// ErrFetchFailed is returned for non-2xx responses and transport failures.
	ErrFetchFailed = cacheerr.ErrFetchFailed

	// ErrTimeout is returned when a fetch exceeds its deadline.
	ErrTimeout = cacheerr.ErrTimeout

	// ErrIO is returned when the cache directory cannot be read or written.
	ErrIO = cacheerr.ErrIO

	// ErrInit is returned by New when the cache directory is unusable.
	ErrInit = cacheerr.ErrInit
)

// Error is the concrete type behind every classified failure.
type Error = cacheerr.Error
