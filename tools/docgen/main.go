// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"

	"github.com/staranto/urlcache/internal/version"
)

// docgen reads docs/commands/<cmd>.md and writes the pages `urlcache <cmd>
// --tldr` and `man urlcache-<cmd>` show:
//   - docs/man/share/man1/urlcache-<cmd>.1
//   - docs/tldr/urlcache-<cmd>.md

const (
	binName = "urlcache"
	repoURL = "https://github.com/staranto/urlcache"
)

const (
	secNone = iota
	secShort
	secExamples
	secFlags
)

var sections = map[string]int{
	"short description":      secShort,
	"quick examples":         secExamples,
	"flags and related docs": secFlags,
}

type example struct {
	Desc string
	Cmd  string
}

type flagDoc struct {
	Names []string
	Desc  string
}

type commandDoc struct {
	Name     string
	Title    string
	Short    string
	Examples []example
	Flags    []flagDoc
}

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	processed, err := generate(repoRoot, writeOnlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}
	if processed == 0 {
		fatalf("no command markdown found under %s", filepath.Join(repoRoot, "docs", "commands"))
	}
}

// generate renders a man page and a tldr page for every command doc under
// root and returns how many docs it processed. Nothing is written unless
// every doc parses.
func generate(root string, onlyIfChanged bool) (int, error) {
	commandsDir := filepath.Join(root, "docs", "commands")
	manOutDir := filepath.Join(root, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(root, "docs", "tldr")

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return 0, fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	var docs []commandDoc
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		raw, err := os.ReadFile(filepath.Join(commandsDir, e.Name()))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		doc := parseDoc(name, string(raw))
		if err := lint(doc); err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}

	if err := os.MkdirAll(manOutDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating man output dir: %w", err)
	}
	if err := os.MkdirAll(tldrOutDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating tldr output dir: %w", err)
	}

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}

	for i, d := range docs {
		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", binName, d.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(buildManMarkdown(d, names))), onlyIfChanged); err != nil {
			return i, fmt.Errorf("writing man page for %s: %w", d.Name, err)
		}
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", binName, d.Name))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(d)), onlyIfChanged); err != nil {
			return i, fmt.Errorf("writing TLDR for %s: %w", d.Name, err)
		}
	}
	return len(docs), nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

var (
	h1Re   = regexp.MustCompile(`^#\s+(.+)$`)
	flagRe = regexp.MustCompile("^((?:`[^`]+`,?\\s*)+):\\s*(.*)$")
	tickRe = regexp.MustCompile("`([^`]+)`")
)

// parseDoc splits a command doc into its sections. Unknown text outside the
// known sections is ignored.
func parseDoc(name, md string) commandDoc {
	doc := commandDoc{Name: name}
	section := secNone
	inFence := false

	var short []string
	var cur example
	var bullet []string
	flushBullet := func() {
		if len(bullet) == 0 {
			return
		}
		if f, ok := parseFlag(strings.Join(bullet, " ")); ok {
			doc.Flags = append(doc.Flags, f)
		}
		bullet = nil
	}

	for _, ln := range strings.Split(md, "\n") {
		s := strings.TrimSpace(strings.TrimRight(ln, "\r"))

		if strings.HasPrefix(s, "```") {
			inFence = !inFence
			continue
		}

		if !inFence {
			if m := h1Re.FindStringSubmatch(s); m != nil && doc.Title == "" {
				doc.Title = strings.TrimSpace(m[1])
				continue
			}
			if sec, ok := sections[strings.ToLower(strings.TrimLeft(s, "# "))]; ok {
				flushBullet()
				section = sec
				continue
			}
		}

		switch section {
		case secShort:
			// First paragraph only.
			if s == "" {
				if len(short) > 0 {
					section = secNone
				}
				continue
			}
			short = append(short, s)

		case secExamples:
			if !inFence || s == "" {
				continue
			}
			if strings.HasPrefix(s, "#") {
				cur.Desc = strings.TrimSpace(strings.TrimLeft(s, "#"))
				continue
			}
			cur.Cmd = strings.Join(strings.Fields(s), " ")
			if cur.Desc == "" {
				cur.Desc = "Example"
			}
			doc.Examples = append(doc.Examples, cur)
			cur = example{}

		case secFlags:
			switch {
			case strings.HasPrefix(s, "- "):
				flushBullet()
				bullet = append(bullet, strings.TrimPrefix(s, "- "))
			case s == "":
				flushBullet()
			case len(bullet) > 0:
				bullet = append(bullet, s)
			}
		}
	}
	flushBullet()

	doc.Short = strings.Join(short, " ")
	if doc.Short == "" && doc.Title != "" {
		doc.Short = doc.Title + "."
	}
	return doc
}

// parseFlag reads "`-b`, `--base64`: description".
func parseFlag(s string) (flagDoc, bool) {
	m := flagRe.FindStringSubmatch(s)
	if m == nil {
		return flagDoc{}, false
	}
	var f flagDoc
	for _, n := range tickRe.FindAllStringSubmatch(m[1], -1) {
		f.Names = append(f.Names, n[1])
	}
	f.Desc = strings.TrimSpace(m[2])
	return f, true
}

// lint rejects docs whose pages would mislead: no description, no examples,
// or examples that never run the command they document.
func lint(d commandDoc) error {
	if d.Short == "" {
		return fmt.Errorf("%s: missing short description", d.Name)
	}
	if len(d.Examples) == 0 {
		return fmt.Errorf("%s: missing quick examples", d.Name)
	}
	want := binName + " " + d.Name
	for _, ex := range d.Examples {
		if !strings.Contains(ex.Cmd, want) {
			return fmt.Errorf("%s: example %q does not run %q", d.Name, ex.Cmd, want)
		}
	}
	return nil
}

func buildTLDR(d commandDoc) string {
	var b strings.Builder
	b.WriteString("# " + binName + "-" + d.Name + "\n\n")
	b.WriteString("> " + d.Short + "\n")
	b.WriteString("> More information: " + repoURL + ".\n")

	for _, ex := range d.Examples {
		b.WriteString("\n- " + ex.Desc + ":\n\n")
		b.WriteString("`" + placeholders(ex.Cmd) + "`\n")
	}
	return b.String()
}

// placeholders marks the parts of an example a reader is expected to
// replace: URLs, the id given with --id, redirect targets and <name> tokens.
func placeholders(cmd string) string {
	fields := strings.Fields(cmd)
	hasID := false
	for _, f := range fields {
		if f == "--id" {
			hasID = true
		}
	}

	last := len(fields) - 1
	for i, f := range fields {
		switch {
		case strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">") && len(f) > 2:
			fields[i] = "{{" + f[1:len(f)-1] + "}}"
		case i > 0 && (fields[i-1] == ">" || fields[i-1] == "<"):
			fields[i] = "{{" + f + "}}"
		case isURL(strings.TrimRight(f, ")")):
			trimmed := strings.TrimRight(f, ")")
			fields[i] = "{{" + trimmed + "}}" + f[len(trimmed):]
		case hasID && i == last && !strings.HasPrefix(f, "-"):
			fields[i] = "{{" + f + "}}"
		}
	}
	return strings.Join(fields, " ")
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "s3":
		return true
	}
	return false
}

// buildManMarkdown lays a command doc out as man sections. md2man turns the
// first H1 into the .TH line and later H1s into .SH.
func buildManMarkdown(d commandDoc, all []string) string {
	page := strings.ToUpper(binName + "-" + d.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s 1 \"\" \"%s %s\" \"User Commands\"\n\n", page, binName, version.Version)

	b.WriteString("# NAME\n\n")
	fmt.Fprintf(&b, "%s-%s - %s\n\n", binName, d.Name, d.Short)

	b.WriteString("# EXAMPLES\n\n")
	for _, ex := range d.Examples {
		fmt.Fprintf(&b, "%s:\n\n    %s\n\n", ex.Desc, ex.Cmd)
	}

	if len(d.Flags) > 0 {
		b.WriteString("# OPTIONS\n\n")
		for _, f := range d.Flags {
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", strings.Join(f.Names, "**, **"), f.Desc)
		}
	}

	var see []string
	for _, n := range all {
		if n != d.Name {
			see = append(see, fmt.Sprintf("**%s-%s**(1)", binName, n))
		}
	}
	if len(see) > 0 {
		sort.Strings(see)
		b.WriteString("# SEE ALSO\n\n")
		b.WriteString(strings.Join(see, ", ") + "\n")
	}
	return b.String()
}
