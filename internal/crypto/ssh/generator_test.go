// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package ssh

import (
	"strings"
	"testing"

	xssh "golang.org/x/crypto/ssh"
)

func TestGenerateAndMarshalEd25519Key(t *testing.T) {
	pub, priv, err := GenerateAndMarshalEd25519Key("test-comment")
	if err != nil {
		t.Fatalf("GenerateAndMarshalEd25519Key failed: %v", err)
	}

	pk, comment, _, _, err := xssh.ParseAuthorizedKey([]byte(pub))
	if err != nil {
		t.Fatalf("ParseAuthorizedKey failed: %v", err)
	}
	if comment != "test-comment" {
		t.Errorf("unexpected comment: got %q want %q", comment, "test-comment")
	}
	if pk.Type() != xssh.KeyAlgoED25519 {
		t.Errorf("unexpected key type %s", pk.Type())
	}

	signer, err := xssh.ParsePrivateKey(priv)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	if xssh.FingerprintSHA256(signer.PublicKey()) != xssh.FingerprintSHA256(pk) {
		t.Fatalf("public and private halves do not match")
	}
}

func TestGenerateAndMarshalEd25519Key_NoComment(t *testing.T) {
	pub, _, err := GenerateAndMarshalEd25519Key("")
	if err != nil {
		t.Fatalf("GenerateAndMarshalEd25519Key failed: %v", err)
	}
	if strings.Count(pub, " ") != 1 {
		t.Fatalf("expected bare \"type base64\" public key, got %q", pub)
	}
}
