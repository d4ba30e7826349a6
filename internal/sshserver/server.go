// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshserver terminates the SSH protocol with golang.org/x/crypto/ssh
// and forwards every authentication callback to a honeypot.Session.
package sshserver // import "github.com/toeirei/sshlure/internal/sshserver"

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/sshlure/internal/honeypot"
	"github.com/toeirei/sshlure/internal/logging"
	"golang.org/x/crypto/ssh"
)

// ErrServerClosed is returned by Serve and ListenAndServe after the context
// passed to them is done.
var ErrServerClosed = errors.New("sshserver: server closed")

// errAccessDenied is what x/crypto/ssh sees from every auth callback.
var errAccessDenied = errors.New("access denied")

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Config holds the transport settings. Zero durations disable the
// corresponding limit.
type Config struct {
	Listen            string
	ServerVersion     string
	MaxAuthTries      int
	ConnectionTimeout time.Duration
	RejectionDelay    time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the server logger.
func WithLogger(l *clog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server accepts connections and runs the SSH handshake for each of them.
type Server struct {
	cfg     Config
	coord   *honeypot.Coordinator
	signers []ssh.Signer
	log     *clog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// New returns a server that hands every accepted connection to coord.
func New(cfg Config, coord *honeypot.Coordinator, signers []ssh.Signer, opts ...Option) (*Server, error) {
	if coord == nil {
		return nil, errors.New("sshserver: coordinator is required")
	}
	if len(signers) == 0 {
		return nil, errors.New("sshserver: at least one host key is required")
	}
	s := &Server{
		cfg:     cfg,
		coord:   coord,
		signers: signers,
		log:     logging.With("component", "sshserver"),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Addr returns the address of the listener passed to Serve, or nil before
// Serve was called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe binds cfg.Listen and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln, drops
// live connections, waits for their handlers and returns ErrServerClosed.
// Accept errors other than a closed listener are retried with backoff.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.log.Info("listening", "addr", ln.Addr().String(), "version", s.cfg.ServerVersion)

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(backoff*2, maxAcceptBackoff)
			}
			s.log.Warn("accept failed", "err", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrServerClosed
			}
			continue
		}
		backoff = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle owns conn for its whole lifetime.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	sess, err := s.coord.NewConnection(ctx, conn.RemoteAddr())
	if err != nil {
		s.log.Debug("dropping connection", "err", err)
		return
	}
	defer sess.Close()
	log := sess.Logger()

	if err := sess.TrackChannel(honeypot.ControlChannel, conn); err != nil {
		log.Debug("track control channel", "err", err)
	}
	defer sess.UntrackChannel(honeypot.ControlChannel)

	if s.cfg.ConnectionTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.ConnectionTimeout))
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(connCtx, func() { _ = conn.Close() })
	defer stop()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.serverConfig(connCtx, sess))
	if err != nil {
		log.Debug("connection ended", "err", err)
		return
	}

	// Every callback denies, so a completed handshake means something is
	// badly wrong. Refuse whatever the client asks for and hang up.
	log.Error("handshake completed, closing", "user", sshConn.User(), "client_version", string(sshConn.ClientVersion()))
	go ssh.DiscardRequests(reqs)
	go func() {
		for nc := range chans {
			_ = nc.Reject(ssh.Prohibited, "access denied")
		}
	}()
	_ = sshConn.Close()
}

func (s *Server) serverConfig(ctx context.Context, sess *honeypot.Session) *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{
		ServerVersion: s.cfg.ServerVersion,
		MaxAuthTries:  s.cfg.MaxAuthTries,
		NoClientAuth:  true,
		NoClientAuthCallback: func(md ssh.ConnMetadata) (*ssh.Permissions, error) {
			return nil, s.reject(ctx, sess.Authenticate(ctx, honeypot.NoneAuth{User: md.User()}))
		},
		PasswordCallback: func(md ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			return nil, s.reject(ctx, sess.Authenticate(ctx, honeypot.PasswordAuth{User: md.User(), Password: string(password)}))
		},
		PublicKeyCallback: func(md ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			return nil, s.reject(ctx, sess.Authenticate(ctx, honeypot.PublicKeyAuth{User: md.User(), Key: key}))
		},
		// The challenge function is never called, so the client gets no
		// prompt round trip.
		KeyboardInteractiveCallback: func(md ssh.ConnMetadata, _ ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			return nil, s.reject(ctx, sess.Authenticate(ctx, honeypot.InteractiveAuth{User: md.User()}))
		},
	}
	for _, signer := range s.signers {
		cfg.AddHostKey(signer)
	}
	return cfg
}

// reject turns a decision into the callback error. The rejection delay is
// cut short when the connection goes away.
func (s *Server) reject(ctx context.Context, d honeypot.Decision) error {
	if d != honeypot.Deny {
		// Sessions never accept; treat anything else as a deny too.
		s.log.Error("unexpected auth decision", "decision", d.String())
	}
	if s.cfg.RejectionDelay > 0 {
		t := time.NewTimer(s.cfg.RejectionDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return errAccessDenied
}
