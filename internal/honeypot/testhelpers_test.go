package honeypot

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/sshlure/internal/model"
	"github.com/toeirei/sshlure/internal/testutil"
	"golang.org/x/crypto/ssh"
)

// fakeRecorder captures every call in order. err, block and panicMsg inject
// failures.
type fakeRecorder struct {
	mu          sync.Mutex
	events      []string
	connections []model.ConnectionEvent
	attempts    []model.Attempt
	ctxErrs     []error

	err      error
	block    bool
	panicMsg string
}

func (f *fakeRecorder) RecordConnection(ctx context.Context, ip string, port int) error {
	if err := f.inject(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "connection")
	f.connections = append(f.connections, model.ConnectionEvent{ClientIP: ip, Port: port})
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return nil
}

func (f *fakeRecorder) RecordAttempt(ctx context.Context, a model.Attempt) error {
	if err := f.inject(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "attempt:"+string(a.AuthType))
	f.attempts = append(f.attempts, a)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return nil
}

func (f *fakeRecorder) inject(ctx context.Context) error {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeRecorder) snapshot() ([]string, []model.ConnectionEvent, []model.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...),
		append([]model.ConnectionEvent(nil), f.connections...),
		append([]model.Attempt(nil), f.attempts...)
}

type fakeMetrics struct {
	mu        sync.Mutex
	accepted  int
	attempts  map[string]int
	failures  map[string]int
	durations map[string]int
	opened    int
	closed    int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{attempts: map[string]int{}, failures: map[string]int{}, durations: map[string]int{}}
}

func (m *fakeMetrics) ConnectionAccepted() {
	m.mu.Lock()
	m.accepted++
	m.mu.Unlock()
}

func (m *fakeMetrics) AuthAttempt(method string) {
	m.mu.Lock()
	m.attempts[method]++
	m.mu.Unlock()
}

func (m *fakeMetrics) PersistFailed(op string) {
	m.mu.Lock()
	m.failures[op]++
	m.mu.Unlock()
}

func (m *fakeMetrics) PersistDuration(op string, _ time.Duration) {
	m.mu.Lock()
	m.durations[op]++
	m.mu.Unlock()
}

func (m *fakeMetrics) SessionOpened() {
	m.mu.Lock()
	m.opened++
	m.mu.Unlock()
}

func (m *fakeMetrics) SessionClosed() {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
}

// fakeHandle counts Close calls.
type fakeHandle struct {
	mu     sync.Mutex
	closes int
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	if h.closes > 1 {
		return net.ErrClosed
	}
	return nil
}

func (h *fakeHandle) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

var errStorageDown = errors.New("storage unreachable")

func attacker() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("203.0.113.5"), Port: 51515}
}

func newTestSession(t *testing.T, rec Recorder, opts ...Option) (*Coordinator, *Session) {
	t.Helper()
	c := NewCoordinator(rec, 2222, opts...)
	s, err := c.NewConnection(context.Background(), attacker())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	return c, s
}

func testPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	return testutil.NewSigner(t).PublicKey()
}
