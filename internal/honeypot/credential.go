// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package honeypot

import (
	"golang.org/x/crypto/ssh"
)

// Decision is the answer returned to the transport for an authentication
// callback.
type Decision int

const (
	// Deny refuses the attempt. It is the only decision a Session returns.
	Deny Decision = iota
	// Accept exists so the transport contract is a closed two-value set.
	Accept
)

func (d Decision) String() string {
	switch d {
	case Deny:
		return "deny"
	case Accept:
		return "accept"
	}
	return "unknown"
}

// Credential is one authentication attempt as delivered by the transport.
// The set of implementations is closed: PasswordAuth, PublicKeyAuth,
// NoneAuth and InteractiveAuth.
type Credential interface {
	// Method is the SSH protocol method name.
	Method() string
	credential()
}

// PasswordAuth carries a cleartext password.
type PasswordAuth struct {
	User     string
	Password string
}

// PublicKeyAuth carries the offered public key. Key may be nil when the
// transport could not parse it.
type PublicKeyAuth struct {
	User string
	Key  ssh.PublicKey
}

// NoneAuth is the "none" method, usually a client probing which methods
// the server supports.
type NoneAuth struct {
	User string
}

// InteractiveAuth is keyboard-interactive. Its content is never recorded.
type InteractiveAuth struct {
	User       string
	Submethods string
	Responses  []string
}

func (PasswordAuth) Method() string    { return "password" }
func (PublicKeyAuth) Method() string   { return "publickey" }
func (NoneAuth) Method() string        { return "none" }
func (InteractiveAuth) Method() string { return "keyboard-interactive" }

func (PasswordAuth) credential()    {}
func (PublicKeyAuth) credential()   {}
func (NoneAuth) credential()        {}
func (InteractiveAuth) credential() {}

// Fingerprint returns the stored secret for a public key: its SHA256
// fingerprint, or "" for a nil key.
func Fingerprint(key ssh.PublicKey) string {
	if key == nil {
		return ""
	}
	return ssh.FingerprintSHA256(key)
}
