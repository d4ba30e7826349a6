// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/toeirei/sshlure/internal/model"
)

// Recorder is the write side used by the honeypot while it is engaged with
// a client. Each call writes exactly one immutable record.
type Recorder interface {
	RecordConnection(ctx context.Context, clientIP string, port int) error
	RecordAttempt(ctx context.Context, a model.Attempt) error
}

// Store is the full persistence surface: the Recorder plus the read
// queries used by operator tooling.
type Store interface {
	Recorder

	RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error)
	// StreamAttempts calls fn for every attempt recorded at or after since,
	// oldest first. A zero since streams everything. Iteration stops at the
	// first error returned by fn.
	StreamAttempts(ctx context.Context, since time.Time, fn func(model.Attempt) error) error
	TopCredentials(ctx context.Context, limit int) ([]model.CredentialCount, error)
	TopUsernames(ctx context.Context, limit int) ([]model.UsernameCount, error)
	TopSources(ctx context.Context, limit int) ([]model.SourceCount, error)
	Summary(ctx context.Context) (model.Summary, error)

	Ping(ctx context.Context) error
	Close() error
}

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
