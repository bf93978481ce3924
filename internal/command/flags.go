// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/fetch"
)

var (
	examplesFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "examples",
		Usage:       "show usage examples",
		HideDefault: true,
	}

	tldrFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
)

// NewCacheFlags returns the flags every cache command shares. ns is the
// command name, used as the config namespace, and src the config file.
func NewCacheFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "cache namespace (subdirectory of the cache root)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("URLCACHE_NAMESPACE"),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, NamespaceValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "root",
			Usage: "cache root directory. Overrides the platform cache directory",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("URLCACHE_ROOT"),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
	}
}

// NewFetchFlags returns the flags of commands that may hit the network.
func NewFetchFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per request timeout",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".timeout", altsrc.StringSourcer(src)),
				yaml.YAML("timeout", altsrc.StringSourcer(src)),
			),
			Value: fetch.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "bearer token sent with http requests",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("URLCACHE_TOKEN"),
			),
		},
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "user-agent",
			Usage: "User-Agent header. Defaults to a browser-like identifier",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("URLCACHE_USER_AGENT"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "s3-profile",
			Usage: "AWS shared config profile for s3:// sources",
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region for s3:// sources",
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "endpoint of an S3 compatible store",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("URLCACHE_S3_ENDPOINT"),
			),
		}),
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "use path style S3 addressing",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".s3-path-style", altsrc.StringSourcer(src)),
				yaml.YAML("s3-path-style", altsrc.StringSourcer(src)),
			),
		},
		&cli.IntFlag{
			Name:  "s3-max-attempts",
			Usage: "maximum attempts per S3 request",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".s3-max-attempts", altsrc.StringSourcer(src)),
				yaml.YAML("s3-max-attempts", altsrc.StringSourcer(src)),
			),
		},
	}
}

// NewInputFlags returns the flags selecting how positional args are keyed.
func NewInputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "id",
			Usage:       "treat arguments as identifiers instead of URLs",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "URL fetched for an identifier on a miss (with --id)",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
	}
}

// NewOutputFlags returns the listing flags, namespaced to ns in the config
// file src.
func NewOutputFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(src)),
				yaml.YAML("titles", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain. Environment sources already on the
// flag keep precedence.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas checks if the given executable is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
