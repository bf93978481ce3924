// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package fetch retrieves the bytes behind a URL. HTTP(S) requests use a
// fixed whole-request timeout and a default User-Agent; s3:// requests go
// through an AWS SDK client when one is configured. Every failure is a
// cacheerr.Error of kind ErrFetchFailed or ErrTimeout.
package fetch
