// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache provides a file-based, content-addressed cache for remote
// resources. A resource is keyed on its URL, or on an explicit id, and
// stored as <cache-root>/<namespace>/<sha3-512-hex>. The first request
// downloads it; later requests are served from disk until the entry is
// invalidated or refreshed.
//
//	m, err := cache.New(cache.Config{Namespace: "myapp"})
//	data, err := m.GetFileData(ctx, cache.URL("https://example.com/fake_image.png"))
//
// Every operation has an Async variant that delivers its result on a
// channel.
package cache
