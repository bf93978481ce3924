// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
)

// RefreshCommandAction drops and refetches each arg, printing the new path.
func RefreshCommandAction(ctx context.Context, cmd *cli.Command) error {
	inputs, err := Inputs(cmd)
	if err != nil {
		return err
	}

	m, err := NewManager(ctx, cmd, Sources(inputs)...)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	for _, in := range inputs {
		p, err := m.RefreshCache(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, p)
	}
	return nil
}

// RefreshCommandBuilder constructs the cli.Command definition for the
// "refresh" command.
func RefreshCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewInputFlags(), NewFetchFlags("refresh", meta.ConfigSource())...)

	return (&CommandBuilder{
		Name:      "refresh",
		Usage:     "refetch cached data",
		UsageText: `urlcache refresh [options] URL...|-`,
		Flags:     flags,
		Examples: [][2]string{
			{"urlcache refresh https://example.com/feed.json", "pick up a changed resource"},
		},
		Action: RefreshCommandAction,
		Meta:   meta,
	}).Build()
}
