// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/internal/db"
	"github.com/toeirei/sshlure/internal/i18n"
)

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db-maintain",
		Short: "Run engine-specific database maintenance",
		Long: `Runs maintenance for the configured database: PRAGMA optimize, VACUUM
and an integrity check for sqlite, VACUUM ANALYZE for postgres and
OPTIMIZE TABLE for mysql.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Apply pending migrations before touching the tables.
			store, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.Dsn)
			if err != nil {
				return fmt.Errorf("open %s database: %w", cfg.Database.Type, err)
			}
			_ = store.Close()

			if err := db.RunDBMaintenance(cfg.Database.Type, cfg.Database.Dsn); err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintenance_done"))
			return nil
		},
	}
}
