// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"cmp"
	"sort"
	"strings"
)

type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

// SortDataset orders rows in place by a comma separated list of keys. A key
// prefixed with "-" sorts descending and one prefixed with "!" compares
// strings case sensitively. Prefixes may be combined in either order.
func SortDataset(rows []map[string]interface{}, spec string) {
	if spec == "" || len(rows) < 2 {
		return
	}

	var keys []sortKey
	for _, raw := range strings.Split(spec, ",") {
		k := sortKey{}
		for len(raw) > 0 && (raw[0] == '-' || raw[0] == '!') {
			if raw[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			raw = raw[1:]
		}
		if raw == "" {
			continue
		}
		k.name = raw
		keys = append(keys, k)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.name], rows[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically and everything else by its
// string form. Missing values sort first.
func compareValues(a, b interface{}, caseSensitive bool) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
