// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the records captured by the honeypot.
package model // import "github.com/toeirei/sshlure/internal/model"

import (
	"fmt"
	"strings"
	"time"
)

// AuthMethod is the closed set of authentication methods that can be
// recorded. Protocol methods outside this set never reach storage.
type AuthMethod string

const (
	AuthPassword  AuthMethod = "password"
	AuthPublicKey AuthMethod = "publickey"
	AuthNone      AuthMethod = "none"
)

// AuthMethods lists every recordable method in storage order.
var AuthMethods = []AuthMethod{AuthPassword, AuthPublicKey, AuthNone}

// Valid reports whether m is a member of the closed set.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthPassword, AuthPublicKey, AuthNone:
		return true
	}
	return false
}

func (m AuthMethod) String() string { return string(m) }

// ParseAuthMethod maps an SSH protocol method name onto the closed set.
// "publickey" and "password" map to themselves, "none" to AuthNone.
func ParseAuthMethod(s string) (AuthMethod, error) {
	m := AuthMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported auth method %q", s)
	}
	return m, nil
}

// Attempt is one captured authentication attempt. Timestamp is assigned by
// the persistence layer when the record is written.
type Attempt struct {
	ID        int64      `json:"id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	ClientIP  string     `json:"client_ip"`
	Port      int        `json:"port"`
	AuthType  AuthMethod `json:"auth_type"`
	Username  string     `json:"username"`
	Secret    string     `json:"secret"`
}

// Validate checks the invariants every stored attempt must satisfy.
func (a Attempt) Validate() error {
	if a.ClientIP == "" {
		return fmt.Errorf("attempt: client address is required")
	}
	if !a.AuthType.Valid() {
		return fmt.Errorf("attempt: invalid auth type %q", a.AuthType)
	}
	if a.AuthType == AuthNone && a.Secret != "" {
		return fmt.Errorf("attempt: auth type none carries no secret")
	}
	return nil
}

// ConnectionEvent is recorded once per accepted connection.
type ConnectionEvent struct {
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ClientIP  string    `json:"client_ip"`
	Port      int       `json:"port"`
}
