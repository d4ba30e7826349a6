package ssh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	xssh "golang.org/x/crypto/ssh"
)

func TestLoadOrGenerateHostKeys_GeneratesMissingEd25519(t *testing.T) {
	dir := t.TempDir()
	edPath := filepath.Join(dir, "id_ed25519")
	rsaPath := filepath.Join(dir, "id_rsa")

	signers, err := LoadOrGenerateHostKeys([]string{edPath, rsaPath})
	if err != nil {
		t.Fatalf("LoadOrGenerateHostKeys: %v", err)
	}
	if len(signers) != 1 {
		t.Fatalf("expected 1 signer (rsa missing is skipped), got %d", len(signers))
	}
	if signers[0].PublicKey().Type() != xssh.KeyAlgoED25519 {
		t.Fatalf("unexpected key type %s", signers[0].PublicKey().Type())
	}

	info, err := os.Stat(edPath)
	if err != nil {
		t.Fatalf("generated key missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("host key mode = %o; want 600", perm)
	}
	if _, err := os.Stat(rsaPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rsa key must not be generated, stat err=%v", err)
	}

	// A second run loads the same key instead of replacing it.
	again, err := LoadOrGenerateHostKeys([]string{edPath})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if xssh.FingerprintSHA256(again[0].PublicKey()) != xssh.FingerprintSHA256(signers[0].PublicKey()) {
		t.Fatalf("existing host key was replaced")
	}
}

func TestLoadOrGenerateHostKeys_NoneUsable(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadOrGenerateHostKeys([]string{filepath.Join(dir, "id_rsa")})
	if !errors.Is(err, ErrNoHostKeys) {
		t.Fatalf("expected ErrNoHostKeys, got %v", err)
	}
}

func TestLoadOrGenerateHostKeys_CorruptKey(t *testing.T) {
	p := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(p, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadOrGenerateHostKeys([]string{p}); err == nil {
		t.Fatalf("expected parse error for corrupt key")
	}
}

func TestWriteHostKey_DoesNotOverwrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "keys", "id_ed25519")
	if _, err := WriteHostKey(p); err != nil {
		t.Fatalf("WriteHostKey: %v", err)
	}
	if _, err := os.Stat(p + ".pub"); err != nil {
		t.Fatalf("public key not written: %v", err)
	}
	if _, err := WriteHostKey(p); err == nil {
		t.Fatalf("expected error when key already exists")
	}
}
