// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/internal/export"
	"github.com/toeirei/sshlure/internal/i18n"
	"github.com/toeirei/sshlure/internal/logging"
	"golang.org/x/term"
)

var errTerminalOutput = errors.New("refusing to write compressed data to a terminal, use -o or redirect stdout")

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export captured attempts as zstd-compressed JSON lines",
		Long: `Writes every recorded attempt, oldest first, as one JSON object per line
compressed with zstd. Use --since to limit the export to recent attempts.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Duration("since", 0, "Only export attempts newer than this (e.g. 24h)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetDuration("since")
	if since < 0 {
		return fmt.Errorf("--since must not be negative")
	}
	output, _ := cmd.Flags().GetString("output")

	var w io.Writer = cmd.OutOrStdout()
	if output == "" {
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errTerminalOutput
		}
	}

	_, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if output != "" {
		f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	var from time.Time
	if since > 0 {
		from = time.Now().Add(-since)
	}
	n, err := export.WriteAttempts(cmd.Context(), w, store, from)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logging.Infof("%s", i18n.T("cli.exported", n))
	return nil
}
