// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// debug_export decodes sshlure export files to plain JSON lines. Without
// arguments it runs a self-probe: it seeds an in-memory database, exports it
// and decodes the result.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/toeirei/sshlure/internal/db"
	"github.com/toeirei/sshlure/internal/export"
	"github.com/toeirei/sshlure/internal/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(files []string, out io.Writer) error {
	if len(files) == 0 {
		return probe(out)
	}
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		n, err := decode(f, out)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(os.Stderr, "%s: %d attempts\n", name, n)
	}
	return nil
}

func decode(r io.Reader, out io.Writer) (int, error) {
	enc := json.NewEncoder(out)
	return export.ReadAttempts(r, func(a model.Attempt) error {
		return enc.Encode(a)
	})
}

func probe(out io.Writer) error {
	ctx := context.Background()
	store, err := db.NewStoreFromDSN("sqlite", "file:debug_export?mode=memory&cache=shared")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.RecordConnection(ctx, "192.0.2.10", 22); err != nil {
		return err
	}
	seed := []model.Attempt{
		{ClientIP: "192.0.2.10", Port: 22, AuthType: model.AuthNone, Username: "root"},
		{ClientIP: "192.0.2.10", Port: 22, AuthType: model.AuthPassword, Username: "root", Secret: "admin"},
		{ClientIP: "192.0.2.10", Port: 22, AuthType: model.AuthPublicKey, Username: "git", Secret: "SHA256:probe"},
	}
	for _, a := range seed {
		if err := store.RecordAttempt(ctx, a); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	written, err := export.WriteAttempts(ctx, &buf, store, time.Time{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported attempts: %d (%d bytes compressed)\n", written, buf.Len())

	read, err := decode(&buf, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "decoded attempts: %d\n", read)
	return nil
}
