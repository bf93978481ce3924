package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/urlcache/internal/meta"
)

const bashCompletionScript = `# bash completion for urlcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_urlcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "get path refresh invalidate ls warm clear completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--namespace -n --root --tldr --examples"
    local input="--id --source"
    local fetch="--timeout --token --user-agent --s3-profile --s3-region --s3-endpoint --s3-path-style --s3-max-attempts"

    case "$cmd" in
        get)
            local opts="$common $input $fetch --base64 -b --query -q --force"
            ;;
        path)
            local opts="$common $input $fetch --peek --verbose -V"
            ;;
        refresh)
            local opts="$common $input $fetch"
            ;;
        invalidate)
            local opts="$common $input"
            ;;
        ls)
            local opts="$common --color -c --filter -f --output -o --sort -s --titles -t --raw -r"
            ;;
        warm)
            local opts="$common $input $fetch --concurrency -j --fail-fast --single-flight"
            ;;
        clear)
            local opts="$common --yes -y"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--root" ]]; then
        COMPREPLY=( $(compgen -o dirnames -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    fi
    return 0
}

complete -F _urlcache urlcache
`

const zshCompletionScript = `#compdef urlcache

_urlcache() {
  local -a cmds
  cmds=(
    'get:print cached data, fetching it on a miss'
    'path:print the cached file path'
    'refresh:refetch cached data'
    'invalidate:remove cached data'
    'ls:list cached entries'
    'warm:prefetch URLs into the cache'
    'clear:remove every cached entry of a namespace'
    'completion:generate shell completion script'
  )

  local -a common input fetch
  common=(
  '(-n --namespace)'{-n,--namespace}'[cache namespace]:namespace'
  '--root[cache root directory]:root:_directories'
  '--tldr[show tldr page]'
  '--examples[show usage examples]'
  )
  input=(
  '--id[treat arguments as identifiers]'
  '--source[URL fetched for an identifier]:url'
  )
  fetch=(
  '--timeout[per request timeout]:duration'
  '--token[bearer token]:token'
  '--user-agent[User-Agent header]:agent'
  '--s3-profile[AWS profile]:profile'
  '--s3-region[AWS region]:region'
  '--s3-endpoint[S3 compatible endpoint]:url'
  '--s3-path-style[path style addressing]'
  '--s3-max-attempts[S3 attempts]:n'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'urlcache commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    get)
      _arguments -C $common $input $fetch \
        '(-b --base64)'{-b,--base64}'[print base64]' \
        '(-q --query)'{-q,--query}'[gjson path]:path' \
        '--force[write binary to a terminal]' \
        '*:url'
      ;;
    path)
      _arguments -C $common $input $fetch \
        '--peek[do not fetch]' \
        '(-V --verbose)'{-V,--verbose}'[mark uncached paths]' \
        '*:url'
      ;;
    refresh)
      _arguments -C $common $input $fetch '*:url'
      ;;
    invalidate)
      _arguments -C $common $input '*:url'
      ;;
    ls)
      _arguments -C $common \
        '(-c --color)'{-c,--color}'[enable colored text]' \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)' \
        '(-s --sort)'{-s,--sort}'[sort attributes]:attrs' \
        '(-t --titles)'{-t,--titles}'[show titles]' \
        '(-r --raw)'{-r,--raw}'[unformatted values]'
      ;;
    warm)
      _arguments -C $common $input $fetch \
        '(-j --concurrency)'{-j,--concurrency}'[concurrent fetches]:n' \
        '--fail-fast[stop at the first failure]' \
        '--single-flight[fetch duplicates once]' \
        '*:url'
      ;;
    clear)
      _arguments -C $common '(-y --yes)'{-y,--yes}'[confirm removal]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _urlcache urlcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := stdout(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: urlcache completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "urlcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
