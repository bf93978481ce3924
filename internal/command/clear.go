// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
)

// ClearCommandAction removes every entry of the namespace.
func ClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	m, err := NewManager(ctx, cmd)
	if err != nil {
		return err
	}

	n, err := m.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "removed %d entries from %s\n", n, m.Dir())
	return nil
}

// ClearCommandBuilder constructs the cli.Command definition for the "clear"
// command.
func ClearCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "clear",
		Usage:     "remove every cached entry of a namespace",
		UsageText: `urlcache clear --yes [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "confirm removal",
				Required:    true,
				HideDefault: true,
				Validator: func(value bool) error {
					return FlagValidators(value, MustBeTrueValidator)
				},
			},
		},
		Examples: [][2]string{
			{"urlcache clear -y -n myapp", "empty the myapp namespace"},
		},
		Action: ClearCommandAction,
		Meta:   meta,
	}).Build()
}
