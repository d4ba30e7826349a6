// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// package ssh provides host key helpers for the honeypot's SSH endpoint.
// This file contains logic for generating new host keys.
package ssh // import "github.com/toeirei/sshlure/internal/crypto/ssh"

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// GenerateAndMarshalEd25519Key creates a new ed25519 key pair and returns
// the public key in authorized_keys format and the unencrypted private key
// in OpenSSH PEM format.
func GenerateAndMarshalEd25519Key(comment string) (publicKeyString string, privateKeyPEM []byte, err error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	sshPubKey, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	publicKeyString = strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPubKey)))
	if comment != "" {
		publicKeyString += " " + comment
	}

	pemBlock, err := ssh.MarshalPrivateKey(privKey, comment)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return publicKeyString, pem.EncodeToMemory(pemBlock), nil
}
