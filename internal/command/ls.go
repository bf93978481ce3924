// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
	"github.com/staranto/urlcache/internal/output"
)

// now is swapped by tests.
var now = time.Now

// LsCommandAction lists the entries of the namespace.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m, err := NewManager(ctx, cmd)
	if err != nil {
		return err
	}

	entries, err := m.Entries()
	if err != nil {
		return err
	}
	log.Debugf("%d entries in %s", len(entries), m.Dir())

	opts := output.Options{
		Format:  cmd.String("output"),
		Columns: output.EntryColumns,
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Titles:  cmd.Bool("titles"),
		Color:   cmd.Bool("color"),
	}
	if !cmd.Bool("raw") {
		opts.Transforms = output.EntryTransforms(now())
	}

	w := stdout(cmd)
	if err := output.SliceDiceSpit(output.EntryRows(entries), opts, w); err != nil {
		return err
	}

	if opts.Format == "text" && opts.Titles {
		fmt.Fprintf(w, "%d entries, %s in %s\n", len(entries), output.TotalSize(entries), m.Dir())
	}
	return nil
}

// LsCommandBuilder constructs the cli.Command definition for the "ls"
// command.
func LsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewOutputFlags("ls", meta.ConfigSource()),
		&cli.BoolFlag{
			Name:        "raw",
			Aliases:     []string{"r"},
			Usage:       "show full keys, byte sizes and timestamps in text output",
			HideDefault: true,
		},
	)

	return (&CommandBuilder{
		Name:      "ls",
		Usage:     "list cached entries",
		UsageText: `urlcache ls [options]`,
		Flags:     flags,
		Examples: [][2]string{
			{"urlcache ls -t", "list entries with titles and a total"},
			{"urlcache ls -s=-size -f 'size>1000000'", "largest entries over 1 MB"},
			{"urlcache ls -o json", "machine readable listing"},
		},
		Action: LsCommandAction,
		Meta:   meta,
	}).Build()
}
