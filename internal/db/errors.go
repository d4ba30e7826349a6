// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when attempting to insert a record that already exists.
var ErrDuplicate = errors.New("duplicate record")

// ErrInvalidRecord is returned when a record violates the capture
// invariants (missing address, method outside the closed set) and was
// therefore not written.
var ErrInvalidRecord = errors.New("invalid record")

// MapDBError inspects low-level driver errors and maps common constraint
// violations to package-level sentinel errors. The mapping is string based
// so the check works the same for every driver.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	// SQLite CHECK constraint, Postgres invalid enum input (22P02), MySQL truncated enum (1265)
	if strings.Contains(le, "check constraint") || strings.Contains(le, "22p02") || strings.Contains(le, "1265") {
		return ErrInvalidRecord
	}
	return err
}
