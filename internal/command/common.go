// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/urlcache/cache"
	"github.com/staranto/urlcache/fetch"
	"github.com/staranto/urlcache/internal/aws"
	"github.com/staranto/urlcache/internal/meta"
	"github.com/staranto/urlcache/internal/output"
	"github.com/staranto/urlcache/store"
)

// ErrNoArgs is returned by commands that need at least one URL or id.
var ErrNoArgs = errors.New("at least one URL or id is required")

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr urlcache <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "urlcache", subcmd)
			c.Stdout = stdout(cmd)
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CommandBuilder constructs a cli.Command for the cache subcommands using a
// consistent pattern. The builder wires metadata, adds the tldr, examples and
// shared cache flags, and sets up validators.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Examples  [][2]string
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{tldrFlag, examplesFlag}, cb.Flags...)
	flags = append(flags, NewCacheFlags(cb.Name, cb.Meta.ConfigSource())...)

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.Debugf("Executing action for %v", GetMeta(c).Args)
			if ShortCircuitTLDR(ctx, c, cb.Name) {
				return nil
			}
			if c.Bool("examples") {
				output.DumpExamples(ctx, c, cb.Examples)
				return nil
			}
			return cb.Action(ctx, c)
		},
	}
}

// NewManager builds the cache manager described by the command's flags.
// sources are the URLs the command is about to fetch; an S3 client is only
// configured when one of them is an s3:// URL.
func NewManager(ctx context.Context, cmd *cli.Command, sources ...string) (*cache.Manager, error) {
	ns := store.Namespace(cmd.String("namespace"))

	fopts := []fetch.Option{fetch.WithTimeout(cmd.Duration("timeout"))}
	if ua := cmd.String("user-agent"); ua != "" {
		fopts = append(fopts, fetch.WithUserAgent(ua))
	}
	if needsS3(sources) {
		client, err := newS3Client(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3: %w", err)
		}
		fopts = append(fopts, fetch.WithS3(client))
	}

	mopts := []cache.Option{
		cache.WithSource(fetch.New(fopts...)),
		cache.WithLogger(log.WithFields(log.Fields{
			"command":   cmd.Name,
			"namespace": ns,
		})),
	}
	if cmd.Bool("single-flight") {
		mopts = append(mopts, cache.WithSingleFlight())
	}

	return cache.New(cache.Config{Namespace: ns, Root: cmd.String("root")}, mopts...)
}

func newS3Client(ctx context.Context, cmd *cli.Command) (fetch.S3API, error) {
	var opts []aws.Option
	if p := cmd.String("s3-profile"); p != "" {
		opts = append(opts, aws.WithProfile(p))
	}
	if r := cmd.String("s3-region"); r != "" {
		opts = append(opts, aws.WithRegion(r))
	}
	if n := cmd.Int("s3-max-attempts"); n > 0 {
		opts = append(opts, aws.WithMaxAttempts(n))
	}

	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return aws.NewS3(cfg, aws.WithS3Endpoint(cmd.String("s3-endpoint"), cmd.Bool("s3-path-style"))), nil
}

func needsS3(sources []string) bool {
	for _, s := range sources {
		if strings.HasPrefix(strings.ToLower(s), "s3://") {
			return true
		}
	}
	return false
}

// Inputs turns the positional args into cache inputs. With --id each arg is
// an identifier fetched from --source; otherwise each arg is a URL. A single
// "-" reads one arg per line from stdin.
func Inputs(cmd *cli.Command) ([]cache.Input, error) {
	args := cmd.Args().Slice()
	if len(args) == 1 && args[0] == "-" {
		var err error
		if args, err = readLines(stdin(cmd)); err != nil {
			return nil, err
		}
	}
	if len(args) == 0 {
		return nil, ErrNoArgs
	}

	token := cmd.String("token")
	inputs := make([]cache.Input, 0, len(args))
	for _, a := range args {
		var in cache.Input
		if cmd.Bool("id") {
			in = cache.ID(a, cmd.String("source"))
		} else {
			in = cache.URL(a)
		}
		inputs = append(inputs, in.WithToken(token))
	}
	return inputs, nil
}

// Sources returns the URLs the inputs fetch from.
func Sources(inputs []cache.Input) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, in.Source())
	}
	return out
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func stdout(cmd *cli.Command) io.Writer {
	if cmd != nil && cmd.Root().Writer != nil {
		return cmd.Root().Writer
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if cmd != nil && cmd.Root().Reader != nil {
		return cmd.Root().Reader
	}
	return os.Stdin
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
