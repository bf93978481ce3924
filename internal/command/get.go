// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
	"github.com/staranto/urlcache/internal/output"
)

// ErrBinaryToTerminal guards against dumping binary payloads on a terminal.
var ErrBinaryToTerminal = errors.New("refusing to write binary data to a terminal, use --force, --base64 or redirect")

// GetCommandAction is the action handler for the "get" subcommand. It writes
// the cached bytes of a single URL or id to stdout, fetching them on a miss.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	inputs, err := Inputs(cmd)
	if err != nil {
		return err
	}
	if len(inputs) != 1 {
		return fmt.Errorf("get takes exactly one URL or id, got %d", len(inputs))
	}
	in := inputs[0]

	m, err := NewManager(ctx, cmd, in.Source())
	if err != nil {
		return err
	}

	w := stdout(cmd)

	if cmd.Bool("base64") {
		s, err := m.GetFileDataBase64(ctx, in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}

	data, err := m.GetFileData(ctx, in)
	if err != nil {
		return err
	}

	if q := cmd.String("query"); q != "" {
		res, err := output.Query(data, q)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, res)
		return err
	}

	if !cmd.Bool("force") && isTerminal(w) && isBinary(data) {
		return ErrBinaryToTerminal
	}
	_, err = w.Write(data)
	return err
}

func isBinary(data []byte) bool {
	return !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0
}

// GetCommandBuilder constructs the cli.Command definition for the "get"
// command.
func GetCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	src := meta.ConfigSource()
	flags := append(NewInputFlags(),
		&cli.BoolFlag{
			Name:        "base64",
			Aliases:     []string{"b"},
			Usage:       "print the data base64 encoded",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "gjson path evaluated against JSON data",
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "write binary data even when stdout is a terminal",
			HideDefault: true,
		},
	)
	flags = append(flags, NewFetchFlags("get", src)...)

	return (&CommandBuilder{
		Name:      "get",
		Usage:     "print cached data, fetching it on a miss",
		UsageText: `urlcache get [options] URL|-`,
		Flags:     flags,
		Examples: [][2]string{
			{"urlcache get https://example.com/logo.png > logo.png", "cache and save an image"},
			{"urlcache get -q tag_name https://api.github.com/repos/o/r/releases/latest", "query cached JSON"},
			{"urlcache get --id --source https://example.com/a.png avatar-42", "cache under an id"},
			{"urlcache get -b s3://bucket/key.bin", "print an S3 object as base64"},
		},
		Action: GetCommandAction,
		Meta:   meta,
	}).Build()
}
