// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/buildvars"
	"github.com/toeirei/sshlure/internal/config"
	"github.com/toeirei/sshlure/internal/db"
	"github.com/toeirei/sshlure/internal/i18n"
	"github.com/toeirei/sshlure/internal/logging"
)

// Execute runs the CLI entrypoint. The main package calls this and handles
// process exit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates and configures a new root cobra command. Each call
// returns an independent tree, which keeps tests isolated.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sshlure",
		Short: "sshlure is an SSH honeypot that records every credential it is offered.",
		Long: `sshlure listens like an OpenSSH server, records every authentication
attempt (password, public key fingerprint, none) together with the client
address, and denies all of them.

Running without a subcommand starts the honeypot, same as 'sshlure serve'.`,
		Version:       buildvars.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	cmd.PersistentFlags().String("config", "", "config file (default: search for sshlure.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging, including database logs")
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("database.dsn", "./sshlure.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("log.level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log.format", "text", "Log format (text, json, logfmt)")
	cmd.PersistentFlags().String("language", "en", "Language for operator output (en, de)")
	applyServeFlags(cmd)

	cmd.AddCommand(
		newServeCmd(),
		newStatsCmd(),
		newExportCmd(),
		newWatchCmd(),
		newMaintenanceCmd(),
		newHostKeyCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// applyServeFlags defines the flags that only matter to the listener. They
// live on both the root and the serve command.
func applyServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("listen", "0.0.0.0:2222", "Address to bind")
	f.Int("external_port", 2222, "Port recorded with every attempt (the publicly visible port)")
	f.StringSlice("host_keys", []string{"./id_ed25519", "./id_rsa"}, "Host key files; missing ed25519 keys are generated")
	f.String("server_version", "SSH-2.0-OpenSSH_9.0", "SSH identification string")
	f.Int("max_auth_tries", 5000, "Authentication attempts allowed per connection")
	f.Duration("connection_timeout", 600*time.Second, "Hard limit on a connection's lifetime")
	f.Duration("rejection_delay", time.Second, "Delay before each authentication failure is sent")
	f.Duration("persist_timeout", 5*time.Second, "Upper bound for writing one record")
	f.String("metrics.listen", "", "Address for /metrics and /healthz (disabled when empty)")
}

// configPathFromCli returns the --config value if the user set it, after
// checking the file exists.
func configPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// loadConfig resolves the configuration for cmd and applies the logging
// settings from it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := configPathFromCli(cmd)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(cmd, path)
	if err != nil {
		return cfg, fmt.Errorf("error loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
		db.SetDebug(true)
	}
	if err := logging.Configure(level, cfg.Log.Format); err != nil {
		return cfg, err
	}
	i18n.Init(cfg.Language)
	return cfg, nil
}

// openStore loads the configuration and opens the capture database.
func openStore(cmd *cobra.Command) (config.Config, *db.BunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	store, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.Dsn)
	if err != nil {
		return cfg, nil, fmt.Errorf("open %s database: %w", cfg.Database.Type, err)
	}
	return cfg, store, nil
}
