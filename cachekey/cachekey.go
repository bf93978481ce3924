// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cachekey derives cache keys. A key is the lowercase hex SHA3-512
// digest of a URL or of a caller-supplied id, and doubles as the cached
// file's name.
package cachekey

import (
	"encoding/hex"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/staranto/urlcache/cacheerr"
)

// Kind tags an Input as URL mode or id mode.
type Kind int

const (
	KindURL Kind = iota
	KindID
)

func (k Kind) String() string {
	if k == KindID {
		return "id"
	}
	return "url"
}

// Schemes accepted in URL mode.
var Schemes = []string{"http", "https", "s3"}

// Input is what a cache operation is keyed on. Build one with URL or ID so
// URL validation is applied exactly once, in Key.
type Input struct {
	kind   Kind
	value  string
	source string
	token  string
}

// URL returns a URL-mode input. The URL is both the key material and the
// fetch source.
func URL(raw string) Input {
	return Input{kind: KindURL, value: raw, source: raw}
}

// ID returns an id-mode input. id is the key material; source is where the
// bytes come from on a miss and may be empty when the caller supplies its
// own fetch.Source.
func ID(id, source string) Input {
	return Input{kind: KindID, value: id, source: source}
}

// WithToken returns a copy of in that authenticates its fetch with a bearer
// token.
func (in Input) WithToken(token string) Input {
	in.token = token
	return in
}

func (in Input) Kind() Kind { return in.kind }
func (in Input) Value() string { return in.value }
func (in Input) Source() string { return in.source }
func (in Input) Token() string { return in.token }
func (in Input) String() string { return in.kind.String() + ":" + in.value }
func (in Input) IsZero() bool { return in == Input{} }

// Validate checks the input's shape without touching disk or network.
func (in Input) Validate() error {
	switch in.kind {
	case KindID:
		if strings.TrimSpace(in.value) == "" {
			return cacheerr.New(cacheerr.ErrInvalidID, "derive", in.value, errors.New("id is empty"))
		}
		return nil
	default:
		return ValidateURL(in.value)
	}
}

// Key validates the input and returns its cache key.
func (in Input) Key() (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	return Derive(in.value), nil
}

// ValidateURL reports whether raw is an absolute URL with a supported scheme
// and a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return cacheerr.New(cacheerr.ErrInvalidURL, "derive", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return cacheerr.New(cacheerr.ErrInvalidURL, "derive", raw, errors.New("scheme and host are required"))
	}
	scheme := strings.ToLower(u.Scheme)
	for _, s := range Schemes {
		if s == scheme {
			return nil
		}
	}
	return cacheerr.New(cacheerr.ErrInvalidURL, "derive", raw, errors.New("unsupported scheme "+u.Scheme))
}

// Derive hashes s with SHA3-512 and returns the hex string.
func Derive(s string) string {
	sum := sha3.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
