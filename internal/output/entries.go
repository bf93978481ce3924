// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/staranto/urlcache/store"
)

// EntryColumns are the table columns for a cache listing.
var EntryColumns = []string{"key", "size", "modified", "path"}

// EntryRows turns cache entries into dataset rows. Sizes stay in bytes and
// times are UTC RFC 3339 so they filter and sort correctly.
func EntryRows(entries []store.Entry) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]interface{}{
			"key":      e.Key,
			"size":     e.Size,
			"modified": e.ModTime.UTC().Format(time.RFC3339),
			"path":     e.Path,
		})
	}
	return rows
}

// EntryTransforms renders entry rows for people: a shortened key, "1.2 MB"
// sizes and "3 minutes ago" times relative to now.
func EntryTransforms(now time.Time) map[string]func(interface{}) string {
	return map[string]func(interface{}) string{
		"key": func(v interface{}) string {
			return shortKey(InterfaceToString(v))
		},
		"size": func(v interface{}) string {
			n, _ := toFloat(v)
			return humanize.Bytes(uint64(max(n, 0)))
		},
		"modified": func(v interface{}) string {
			s := InterfaceToString(v)
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return s
			}
			return humanize.RelTime(t, now, "ago", "from now")
		},
	}
}

// TotalSize sums the entry sizes and renders them for people.
func TotalSize(entries []store.Entry) string {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return humanize.Bytes(uint64(max(total, 0)))
}

func shortKey(key string) string {
	if len(key) > 16 {
		return key[:16]
	}
	return key
}
