// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "github.com/staranto/urlcache/cachekey"

// Input is what an operation is keyed on. See cachekey.Input.
type Input = cachekey.Input

// URL keys an operation on a URL, which must be well formed. The URL is
// also where bytes are fetched from.
func URL(raw string) Input {
	return cachekey.URL(raw)
}

// ID keys an operation on an explicit cache id. The id is not validated as a
// URL. source is fetched on a miss; pass "" when the Manager's Source
// produces the bytes itself.
func ID(id, source string) Input {
	return cachekey.ID(id, source)
}
