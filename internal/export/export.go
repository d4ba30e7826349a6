// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package export writes captured attempts as zstd-compressed JSON Lines.
package export // import "github.com/toeirei/sshlure/internal/export"

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/sshlure/internal/model"
)

// Source streams attempts oldest first. db.Store satisfies it.
type Source interface {
	StreamAttempts(ctx context.Context, since time.Time, fn func(model.Attempt) error) error
}

// WriteAttempts streams every attempt recorded at or after since into w as
// one JSON object per line, compressed with zstd. It returns the number of
// attempts written.
func WriteAttempts(ctx context.Context, w io.Writer, src Source, since time.Time) (int, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)

	var n int
	err = src.StreamAttempts(ctx, since, func(a model.Attempt) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode attempt %d: %w", a.ID, err)
		}
		n++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return n, err
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("close zstd writer: %w", err)
	}
	return n, nil
}

// ReadAttempts decodes a stream written by WriteAttempts and calls fn for
// every attempt. It returns the number of attempts read.
func ReadAttempts(r io.Reader, fn func(model.Attempt) error) (int, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(bufio.NewReader(zr))
	var n int
	for {
		var a model.Attempt
		if err := dec.Decode(&a); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode attempt %d: %w", n+1, err)
		}
		if err := fn(a); err != nil {
			return n, err
		}
		n++
	}
}
