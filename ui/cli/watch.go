// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/internal/tui"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of incoming attempts",
		Long: `Opens a terminal dashboard that polls the database and shows the most
recent attempts. It can run next to a live honeypot against the same database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			limit, _ := cmd.Flags().GetInt("limit")
			_, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return tui.Run(cmd.Context(), store, interval, limit)
		},
	}
	cmd.Flags().Duration("interval", 2*time.Second, "Refresh interval")
	cmd.Flags().Int("limit", 200, "Number of attempts to show")
	return cmd
}
