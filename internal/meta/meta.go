// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/urlcache/internal/config"
)

// Meta are the meta-options that are available on all commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
}

// ConfigSource is the config file backing flag defaults, or "" when none
// was found.
func (m Meta) ConfigSource() string {
	return m.Config.Source
}
