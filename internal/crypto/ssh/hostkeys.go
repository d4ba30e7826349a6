// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package ssh

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toeirei/sshlure/internal/logging"
	"golang.org/x/crypto/ssh"
)

// ErrNoHostKeys is returned when no usable host key could be loaded or
// generated.
var ErrNoHostKeys = errors.New("no usable host keys")

// HostKeyComment is written into generated keys.
const HostKeyComment = "sshlure host key"

// LoadHostKey reads and parses an unencrypted private key file.
func LoadHostKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	return signer, nil
}

// WriteHostKey generates a fresh ed25519 key and writes it to path with mode
// 0600. The public half is written next to it as path+".pub". An existing
// file is never overwritten.
func WriteHostKey(path string) (ssh.Signer, error) {
	pub, priv, err := GenerateAndMarshalEd25519Key(HostKeyComment)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create host key directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create host key %s: %w", path, err)
	}
	if _, err := f.Write(priv); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write host key %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write host key %s: %w", path, err)
	}
	if err := os.WriteFile(path+".pub", []byte(pub+"\n"), 0o644); err != nil {
		logging.Warnf("could not write public host key %s.pub: %v", path, err)
	}
	return ssh.ParsePrivateKey(priv)
}

// LoadOrGenerateHostKeys loads every key in paths. A missing key whose file
// name mentions ed25519 is generated; other missing keys are skipped. At
// least one signer must result.
func LoadOrGenerateHostKeys(paths []string) ([]ssh.Signer, error) {
	var signers []ssh.Signer
	for _, p := range paths {
		signer, err := LoadHostKey(p)
		switch {
		case err == nil:
			logging.Infof("loaded %s host key from %s (%s)", signer.PublicKey().Type(), p, ssh.FingerprintSHA256(signer.PublicKey()))
		case errors.Is(err, fs.ErrNotExist) && strings.Contains(strings.ToLower(filepath.Base(p)), "ed25519"):
			signer, err = WriteHostKey(p)
			if err != nil {
				return nil, err
			}
			logging.Infof("generated ed25519 host key %s (%s)", p, ssh.FingerprintSHA256(signer.PublicKey()))
		case errors.Is(err, fs.ErrNotExist):
			logging.Warnf("host key %s not found, skipping", p)
			continue
		default:
			return nil, err
		}
		signers = append(signers, signer)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: tried %s", ErrNoHostKeys, strings.Join(paths, ", "))
	}
	return signers, nil
}
