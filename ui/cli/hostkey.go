// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	sshkeys "github.com/toeirei/sshlure/internal/crypto/ssh"
	"golang.org/x/crypto/ssh"
)

func newHostKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostkey",
		Short: "Manage host keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate <path>",
		Short: "Generate an ed25519 host key",
		Long: `Generates an ed25519 host key at <path> (mode 0600) and its public half
at <path>.pub. Existing files are never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := sshkeys.WriteHostKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], ssh.FingerprintSHA256(signer.PublicKey()))
			return nil
		},
	})
	return cmd
}
