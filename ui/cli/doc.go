// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the sshlure command line. Running without a
// subcommand starts the honeypot; the other commands read the captured data.
package cli
