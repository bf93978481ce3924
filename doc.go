// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// urlcache is the command line front end of the urlcache library. It fetches
// remote resources into a local disk cache and serves them from there.
package main
