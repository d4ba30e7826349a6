// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package honeypot

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/sshlure/internal/model"
	"golang.org/x/crypto/ssh"
)

// ErrSessionClosed is returned by TrackChannel after Close.
var ErrSessionClosed = errors.New("honeypot: session closed")

// Session is the per-connection state. Every authentication callback
// records the attempt and returns Deny. Methods are safe for concurrent
// use.
type Session struct {
	id       SessionID
	remote   net.Addr
	clientIP string
	coord    *Coordinator
	log      *clog.Logger

	mu       sync.Mutex
	channels map[uint32]struct{}
	closed   bool
}

// ID returns the session identity used in registry keys.
func (s *Session) ID() SessionID { return s.id }

// RemoteAddr returns the peer address the session was created with.
func (s *Session) RemoteAddr() net.Addr { return s.remote }

// ClientIP returns the normalized peer IP written into records.
func (s *Session) ClientIP() string { return s.clientIP }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *clog.Logger { return s.log }

// Authenticate dispatches cred to the matching callback.
func (s *Session) Authenticate(ctx context.Context, cred Credential) Decision {
	switch c := cred.(type) {
	case PasswordAuth:
		return s.OnPasswordAuth(ctx, c.User, c.Password)
	case PublicKeyAuth:
		return s.OnPublicKeyAuth(ctx, c.User, c.Key)
	case NoneAuth:
		return s.OnNoneAuth(ctx, c.User)
	case InteractiveAuth:
		return s.OnInteractiveAuth(ctx, c.User, c.Submethods, c.Responses)
	}
	return Deny
}

// OnPasswordAuth records a password attempt and denies it.
func (s *Session) OnPasswordAuth(ctx context.Context, user, password string) Decision {
	s.log.Debug("password attempt", "user", user, "password", mask(password))
	s.record(ctx, model.AuthPassword, user, password)
	return Deny
}

// OnPublicKeyAuth records the key's fingerprint and denies the attempt.
func (s *Session) OnPublicKeyAuth(ctx context.Context, user string, key ssh.PublicKey) Decision {
	fp := Fingerprint(key)
	s.log.Debug("publickey attempt", "user", user, "fingerprint", fp)
	s.record(ctx, model.AuthPublicKey, user, fp)
	return Deny
}

// OnNoneAuth records a "none" attempt with an empty secret and denies it.
func (s *Session) OnNoneAuth(ctx context.Context, user string) Decision {
	s.log.Debug("none attempt", "user", user)
	s.record(ctx, model.AuthNone, user, "")
	return Deny
}

// OnInteractiveAuth denies keyboard-interactive immediately. Nothing is
// recorded and no challenge is sent.
func (s *Session) OnInteractiveAuth(_ context.Context, user, submethods string, responses []string) Decision {
	s.coord.metrics.AuthAttempt(InteractiveAuth{}.Method())
	s.log.Debug("keyboard-interactive attempt ignored", "user", user, "submethods", submethods, "responses", len(responses))
	return Deny
}

func (s *Session) record(ctx context.Context, method model.AuthMethod, user, secret string) {
	s.coord.metrics.AuthAttempt(method.String())
	a := model.Attempt{
		ClientIP: s.clientIP,
		Port:     s.coord.externalPort,
		AuthType: method,
		Username: storable(user),
		Secret:   storable(secret),
	}
	s.coord.persist(ctx, s.log, OpAttempt, func(ctx context.Context) error {
		return s.coord.rec.RecordAttempt(ctx, a)
	})
}

// TrackChannel registers h under (session, channelID). A channel id that is
// already tracked is replaced.
func (s *Session) TrackChannel(channelID uint32, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.channels[channelID] = struct{}{}
	s.coord.registry.Insert(Key{Session: s.id, Channel: channelID}, h)
	return nil
}

// UntrackChannel removes the entry for channelID. Unknown ids are ignored.
func (s *Session) UntrackChannel(channelID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channelID)
	s.coord.registry.Remove(Key{Session: s.id, Channel: channelID})
}

// Close releases every registry entry owned by the session. Handles are not
// closed; the transport owns them. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for ch := range s.channels {
		s.coord.registry.Remove(Key{Session: s.id, Channel: ch})
	}
	s.channels = nil
	s.mu.Unlock()

	s.coord.active.Add(-1)
	s.coord.metrics.SessionClosed()
	s.log.Debug("session closed")
}

// storable makes attacker input safe for every supported database: invalid
// UTF-8 and NUL bytes are replaced with U+FFFD.
func storable(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "\uFFFD")
}

// mask hides a password in debug logs while keeping its length visible.
func mask(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", len([]rune(s)))
}
