// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws loads AWS configuration and builds the S3 client used to
// fetch s3:// sources.
package aws
