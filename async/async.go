// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package async turns a blocking call into one whose result is delivered on
// a channel, so callers can select on it alongside other work.
package async

import "context"

// Result carries the outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// Unpack returns the value and error.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

// Run starts fn on its own goroutine and returns a channel that receives
// exactly one Result and is then closed. The channel is buffered, so the
// goroutine finishes even if nobody receives. fn is expected to honor ctx.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// Await blocks until ch delivers or ctx is done.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Unpack()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
