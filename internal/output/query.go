// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when a query is run against a non-JSON payload.
var ErrNotJSON = errors.New("cached data is not JSON")

// Query evaluates a gjson path against data. Strings are returned unquoted,
// every other result as its raw JSON.
func Query(data []byte, path string) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", ErrNotJSON
	}

	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return "", fmt.Errorf("query %q matched nothing", path)
	}
	if res.Type == gjson.String {
		return res.String(), nil
	}
	return res.Raw, nil
}
