// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
)

// PathCommandAction prints the cached file path of each arg. Misses are
// fetched first unless --peek is set, in which case the path is where the
// file would live and nothing is fetched.
func PathCommandAction(ctx context.Context, cmd *cli.Command) error {
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
		var p string
		if cmd.Bool("peek") {
			p, err = m.Path(in)
			if err == nil && cmd.Bool("verbose") {
				ok, _ := m.Exists(in)
				if !ok {
					p += " (not cached)"
				}
			}
		} else {
			p, err = m.GetFilePath(ctx, in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, p)
	}
	return nil
}

// PathCommandBuilder constructs the cli.Command definition for the "path"
// command.
func PathCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewInputFlags(),
		&cli.BoolFlag{
			Name:        "peek",
			Usage:       "print the path without fetching",
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"V"},
			Usage:       "with --peek, mark paths that are not cached",
			HideDefault: true,
		},
	)
	flags = append(flags, NewFetchFlags("path", meta.ConfigSource())...)

	return (&CommandBuilder{
		Name:      "path",
		Usage:     "print the cached file path, fetching it on a miss",
		UsageText: `urlcache path [options] URL...|-`,
		Flags:     flags,
		Examples: [][2]string{
			{"convert $(urlcache path https://example.com/a.png) a.jpg", "hand a cached file to another tool"},
			{"urlcache path --peek https://example.com/a.png", "show where a URL is cached"},
		},
		Action: PathCommandAction,
		Meta:   meta,
	}).Build()
}
