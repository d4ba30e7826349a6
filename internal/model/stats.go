// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// CredentialCount is a username/secret pair and how often it was tried.
type CredentialCount struct {
	Username string `bun:"username" json:"username"`
	Secret   string `bun:"secret" json:"secret"`
	Attempts int64  `bun:"attempts" json:"attempts"`
}

// UsernameCount is a username and how often it was tried.
type UsernameCount struct {
	Username string `bun:"username" json:"username"`
	Attempts int64  `bun:"attempts" json:"attempts"`
}

// SourceCount aggregates attempts per client address.
type SourceCount struct {
	ClientIP string `bun:"client_ip" json:"client_ip"`
	Attempts int64  `bun:"attempts" json:"attempts"`
}

// Summary holds headline numbers for the operator report.
type Summary struct {
	Connections   int64                `json:"connections"`
	Attempts      int64                `json:"attempts"`
	UniqueSources int64                `json:"unique_sources"`
	ByMethod      map[AuthMethod]int64 `json:"by_method"`
	FirstSeen     time.Time            `json:"first_seen,omitempty"`
	LastSeen      time.Time            `json:"last_seen,omitempty"`
}
