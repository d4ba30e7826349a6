// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package honeypot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/toeirei/sshlure/internal/logging"
	"github.com/toeirei/sshlure/internal/model"
)

// ErrNoRemoteAddress is returned by NewConnection when the transport could
// not supply a usable peer address. No session is created and nothing is
// recorded.
var ErrNoRemoteAddress = errors.New("honeypot: connection has no remote address")

// DefaultPersistTimeout bounds every call into the Recorder.
const DefaultPersistTimeout = 5 * time.Second

// Persistence operation names, used as log fields and metric labels.
const (
	OpConnection = "connection"
	OpAttempt    = "attempt"
)

// Recorder is the write side of the persistence service. Implementations
// assign the record timestamp themselves.
type Recorder interface {
	RecordConnection(ctx context.Context, clientIP string, port int) error
	RecordAttempt(ctx context.Context, a model.Attempt) error
}

// Metrics receives counters from the coordinator and its sessions. All
// methods must be safe for concurrent use.
type Metrics interface {
	ConnectionAccepted()
	AuthAttempt(method string)
	PersistFailed(op string)
	PersistDuration(op string, d time.Duration)
	SessionOpened()
	SessionClosed()
}

type nopMetrics struct{}

func (nopMetrics) ConnectionAccepted()                   {}
func (nopMetrics) AuthAttempt(string)                    {}
func (nopMetrics) PersistFailed(string)                  {}
func (nopMetrics) PersistDuration(string, time.Duration) {}
func (nopMetrics) SessionOpened()                        {}
func (nopMetrics) SessionClosed()                        {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger sessions derive from.
func WithLogger(l *clog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithPersistTimeout bounds each Recorder call. Non-positive values keep
// the default.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.persistTimeout = d
		}
	}
}

// WithRegistry shares an existing registry instead of creating one.
func WithRegistry(r *Registry) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.registry = r
		}
	}
}

// Coordinator is the process-wide owner of the recorder, the registry and
// the external port. It is safe for concurrent use.
type Coordinator struct {
	rec            Recorder
	externalPort   int
	registry       *Registry
	log            *clog.Logger
	metrics        Metrics
	persistTimeout time.Duration
	active         atomic.Int64
	newID          func() SessionID
}

// NewCoordinator returns a coordinator that records into rec and stamps
// every record with externalPort.
func NewCoordinator(rec Recorder, externalPort int, opts ...Option) *Coordinator {
	c := &Coordinator{
		rec:            rec,
		externalPort:   externalPort,
		registry:       NewRegistry(),
		log:            logging.With("component", "honeypot"),
		metrics:        nopMetrics{},
		persistTimeout: DefaultPersistTimeout,
		newID:          uuid.New,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ExternalPort returns the port written into every record.
func (c *Coordinator) ExternalPort() int { return c.externalPort }

// Registry returns the shared registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// ActiveSessions returns the number of sessions created and not yet closed.
func (c *Coordinator) ActiveSessions() int { return int(c.active.Load()) }

// NewConnection creates the session for a freshly accepted connection. The
// connection event is written (or has failed) before NewConnection returns.
func (c *Coordinator) NewConnection(ctx context.Context, remote net.Addr) (*Session, error) {
	ip, err := clientIP(remote)
	if err != nil {
		c.log.Warn("refusing connection without usable address", "err", err)
		return nil, err
	}
	c.metrics.ConnectionAccepted()

	id := c.newID()
	s := &Session{
		id:       id,
		remote:   remote,
		clientIP: ip,
		coord:    c,
		log:      c.log.With("session", id.String(), "client", ip),
		channels: make(map[uint32]struct{}),
	}

	c.persist(ctx, s.log, OpConnection, func(ctx context.Context) error {
		return c.rec.RecordConnection(ctx, ip, c.externalPort)
	})

	c.active.Add(1)
	c.metrics.SessionOpened()
	s.log.Debug("session opened", "remote", remote.String())
	return s, nil
}

// Disconnect closes and unregisters every handle registered for id. It
// returns the number of handles closed.
func (c *Coordinator) Disconnect(id SessionID) int {
	var n int
	for _, k := range c.registry.Keys(id) {
		h, ok := c.registry.Remove(k)
		if !ok || h == nil {
			continue
		}
		if err := h.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.log.Debug("closing handle", "session", id.String(), "channel", k.Channel, "err", err)
		}
		n++
	}
	return n
}

// persist runs fn under the persist timeout. The write is detached from
// ctx cancellation so a client hanging up does not abort it. Errors and
// panics are logged and counted, never returned.
func (c *Coordinator) persist(ctx context.Context, log *clog.Logger, op string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.persistTimeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("recorder panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	c.metrics.PersistDuration(op, time.Since(start))

	if err != nil {
		c.metrics.PersistFailed(op)
		log.Warn("persist failed", "op", op, "err", err)
	}
}

// clientIP extracts the textual IP of remote. IPv4-mapped IPv6 addresses
// are unmapped and zones dropped so the same peer always yields the same
// string.
func clientIP(remote net.Addr) (string, error) {
	if remote == nil {
		return "", ErrNoRemoteAddress
	}
	switch a := remote.(type) {
	case *net.TCPAddr:
		if a == nil {
			return "", ErrNoRemoteAddress
		}
		if ip, ok := netip.AddrFromSlice(a.IP); ok {
			return ip.Unmap().WithZone("").String(), nil
		}
		return "", fmt.Errorf("%w: %q", ErrNoRemoteAddress, a.String())
	case *net.UDPAddr:
		if a == nil {
			return "", ErrNoRemoteAddress
		}
		if ip, ok := netip.AddrFromSlice(a.IP); ok {
			return ip.Unmap().WithZone("").String(), nil
		}
		return "", fmt.Errorf("%w: %q", ErrNoRemoteAddress, a.String())
	}

	s := remote.String()
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().WithZone("").String(), nil
	}
	if ip, err := netip.ParseAddr(s); err == nil {
		return ip.Unmap().WithZone("").String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoRemoteAddress, s)
}
