// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/toeirei/sshlure/buildvars"
	"github.com/toeirei/sshlure/internal/config"
	"github.com/toeirei/sshlure/internal/crypto/ssh"
	"github.com/toeirei/sshlure/internal/honeypot"
	"github.com/toeirei/sshlure/internal/logging"
	"github.com/toeirei/sshlure/internal/observability"
	"github.com/toeirei/sshlure/internal/sshserver"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the honeypot",
		Long: `Starts the SSH listener and, if metrics.listen is set, the metrics
and health endpoint. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	applyServeFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return serve(cmd.Context(), cfg, store)
}

// serve wires the listener, the coordinator and the optional metrics
// endpoint together and blocks until ctx is done or one of them fails.
func serve(ctx context.Context, cfg config.Config, store captureStore) error {
	log := logging.With("instance", uuid.NewString())
	log.Info("starting sshlure", "version", buildvars.String(), "listen", cfg.Listen, "database", cfg.Database.Type)

	signers, err := ssh.LoadOrGenerateHostKeys(cfg.HostKeys)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	coord := honeypot.NewCoordinator(store, cfg.ExternalPort,
		honeypot.WithLogger(log),
		honeypot.WithMetrics(metrics),
		honeypot.WithPersistTimeout(cfg.PersistTimeout),
	)

	srv, err := sshserver.New(sshserver.Config{
		Listen:            cfg.Listen,
		ServerVersion:     cfg.ServerVersion,
		MaxAuthTries:      cfg.MaxAuthTries,
		ConnectionTimeout: cfg.ConnectionTimeout,
		RejectionDelay:    cfg.RejectionDelay,
	}, coord, signers, sshserver.WithLogger(log.With("component", "sshserver")))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.ListenAndServe(gctx)
		if errors.Is(err, sshserver.ErrServerClosed) {
			return nil
		}
		return err
	})
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return observability.Serve(gctx, cfg.Metrics.Listen, observability.Handler(metrics, store))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("sshlure stopped")
	return nil
}

// captureStore is what serve needs from the database: somewhere to write
// records and something to ping for /healthz.
type captureStore interface {
	honeypot.Recorder
	observability.Pinger
}
