// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package store persists cache entries as flat files under a namespaced
// cache directory. File name is the cache key, file content is the raw
// fetched bytes. There is no metadata sidecar and no in-memory index.
package store
