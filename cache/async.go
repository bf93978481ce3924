// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"

	"github.com/staranto/urlcache/async"
)

// The Async variants run the blocking operation of the same name on its own
// goroutine and deliver exactly one result. Cancelling ctx cancels the fetch;
// nothing is written for a cancelled fetch.

func (m *Manager) GetFileDataAsync(ctx context.Context, in Input) <-chan async.Result[[]byte] {
	return async.Run(ctx, func(ctx context.Context) ([]byte, error) {
		return m.GetFileData(ctx, in)
	})
}

func (m *Manager) GetFileDataBase64Async(ctx context.Context, in Input) <-chan async.Result[string] {
	return async.Run(ctx, func(ctx context.Context) (string, error) {
		return m.GetFileDataBase64(ctx, in)
	})
}

func (m *Manager) GetFilePathAsync(ctx context.Context, in Input) <-chan async.Result[string] {
	return async.Run(ctx, func(ctx context.Context) (string, error) {
		return m.GetFilePath(ctx, in)
	})
}

func (m *Manager) InvalidateCacheAsync(ctx context.Context, in Input) <-chan async.Result[struct{}] {
	return async.Run(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.InvalidateCache(ctx, in)
	})
}

func (m *Manager) RefreshCacheAsync(ctx context.Context, in Input) <-chan async.Result[string] {
	return async.Run(ctx, func(ctx context.Context) (string, error) {
		return m.RefreshCache(ctx, in)
	})
}
