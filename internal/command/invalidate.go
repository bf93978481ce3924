// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
)

// InvalidateCommandAction removes the cached file of each arg. Args that are
// not cached are not an error.
func InvalidateCommandAction(ctx context.Context, cmd *cli.Command) error {
	inputs, err := Inputs(cmd)
	if err != nil {
		return err
	}

	m, err := NewManager(ctx, cmd)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		if err := m.InvalidateCache(ctx, in); err != nil {
			return err
		}
		log.Debugf("invalidated %s", in)
	}
	return nil
}

// InvalidateCommandBuilder constructs the cli.Command definition for the
// "invalidate" command.
func InvalidateCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "invalidate",
		Usage:     "remove cached data",
		UsageText: `urlcache invalidate [options] URL...|-`,
		Flags:     NewInputFlags(),
		Examples: [][2]string{
			{"urlcache invalidate https://example.com/a.png", "forget one URL"},
			{"urlcache invalidate --id avatar-42", "forget an id"},
		},
		Action: InvalidateCommandAction,
		Meta:   meta,
	}).Build()
}
