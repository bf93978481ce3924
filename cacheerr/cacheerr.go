// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheerr holds the error kinds shared by every layer of the cache.
// Callers classify failures with errors.Is against the sentinel values; the
// *Error wrapper carries the offending input and the underlying cause.
package cacheerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. These enable callers to detect specific conditions via
// errors.Is while keeping messages consistent.
var (
	ErrInvalidURL  = errors.New("invalid url")
	ErrInvalidID   = errors.New("invalid cache id")
	ErrFetchFailed = errors.New("fetch failed")
	ErrTimeout     = errors.New("fetch timed out")
	ErrIO          = errors.New("cache io failure")
	ErrNotFound    = errors.New("cache entry not found")
	ErrInit        = errors.New("cache init failure")
)

// Error is a classified cache failure.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Op names the operation that failed, e.g. "fetch" or "write".
	Op string
	// Input is the URL, id or path the operation was working on.
	Input string
	// StatusCode is the HTTP status for non-2xx fetches, zero otherwise.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Input, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New builds an *Error of the given kind.
func New(kind error, op, input string, err error) *Error {
	return &Error{Kind: kind, Op: op, Input: input, Err: err}
}

// Status builds an ErrFetchFailed *Error for a non-2xx response.
func Status(op, input string, code int) *Error {
	return &Error{Kind: ErrFetchFailed, Op: op, Input: input, StatusCode: code}
}

// KindOf returns the sentinel kind of err, or nil if err is not classified.
func KindOf(err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	for _, k := range []error{ErrInvalidURL, ErrInvalidID, ErrFetchFailed, ErrTimeout, ErrIO, ErrNotFound, ErrInit} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
