// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/urlcache/internal/meta"
)

// WarmCommandAction fetches every arg concurrently so later reads are local.
// Entries already cached are not refetched. Each success is printed as
// "path<TAB>arg" in argument order.
func WarmCommandAction(ctx context.Context, cmd *cli.Command) error {
	inputs, err := Inputs(cmd)
	if err != nil {
		return err
	}

	m, err := NewManager(ctx, cmd, Sources(inputs)...)
	if err != nil {
		return err
	}

	paths := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	var g *errgroup.Group
	gctx := ctx
	if cmd.Bool("fail-fast") {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(max(cmd.Int("concurrency"), 1))

	for i, in := range inputs {
		g.Go(func() error {
			p, err := m.GetFilePath(gctx, in)
			if err != nil {
				log.WithError(err).Warnf("warm %s", in)
				errs[i] = err
				if cmd.Bool("fail-fast") {
					return err
				}
				return nil
			}
			paths[i] = p
			return nil
		})
	}
	firstErr := g.Wait()

	w := stdout(cmd)
	for i, in := range inputs {
		if paths[i] != "" {
			fmt.Fprintf(w, "%s\t%s\n", paths[i], in.Value())
		}
	}

	if firstErr != nil {
		return firstErr
	}
	return errors.Join(errs...)
}

// WarmCommandBuilder constructs the cli.Command definition for the "warm"
// command.
func WarmCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewInputFlags(),
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"j"},
			Usage:   "number of concurrent fetches",
			Value:   4,
		},
		&cli.BoolFlag{
			Name:        "fail-fast",
			Usage:       "stop at the first failed fetch",
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "single-flight",
			Usage:       "fetch duplicate arguments once",
			HideDefault: true,
		},
	)
	flags = append(flags, NewFetchFlags("warm", meta.ConfigSource())...)

	return (&CommandBuilder{
		Name:      "warm",
		Usage:     "prefetch URLs into the cache",
		UsageText: `urlcache warm [options] URL...|-`,
		Flags:     flags,
		Examples: [][2]string{
			{"urlcache warm -j 8 - < urls.txt", "prefetch a list of URLs"},
		},
		Action: WarmCommandAction,
		Meta:   meta,
	}).Build()
}
