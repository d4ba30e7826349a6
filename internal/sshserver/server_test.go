package sshserver

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/sshlure/internal/honeypot"
	"github.com/toeirei/sshlure/internal/model"
	"github.com/toeirei/sshlure/internal/testutil"
	"golang.org/x/crypto/ssh"
)

type memRecorder struct {
	mu          sync.Mutex
	connections []string
	attempts    []model.Attempt
}

func (r *memRecorder) RecordConnection(_ context.Context, ip string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections = append(r.connections, ip)
	return nil
}

func (r *memRecorder) RecordAttempt(_ context.Context, a model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *memRecorder) snapshot() ([]string, []model.Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.connections...), append([]model.Attempt(nil), r.attempts...)
}

type testServer struct {
	addr  string
	rec   *memRecorder
	coord *honeypot.Coordinator
	done  chan error
}

func startServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "SSH-2.0-OpenSSH_9.0"
	}
	if cfg.MaxAuthTries == 0 {
		cfg.MaxAuthTries = 5000
	}
	rec := &memRecorder{}
	coord := honeypot.NewCoordinator(rec, 2222)
	srv, err := New(cfg, coord, []ssh.Signer{testutil.NewSigner(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{addr: ln.Addr().String(), rec: rec, coord: coord, done: make(chan error, 1)}
	go func() { ts.done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-ts.done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not shut down")
		}
	})
	return ts
}

func dial(addr, user string, auth ...ssh.AuthMethod) error {
	client, err := ssh.Dial("tcp", addr, testutil.ClientConfig(user, auth...))
	if err == nil {
		_ = client.Close()
		return errors.New("authentication unexpectedly succeeded")
	}
	return err
}

func waitIdle(t *testing.T, c *honeypot.Coordinator) {
	t.Helper()
	testutil.WaitFor(t, 5*time.Second, "sessions still active", func() bool {
		return c.ActiveSessions() == 0 && c.Registry().Len() == 0
	})
}

func TestPasswordAttemptRecordedAndDenied(t *testing.T) {
	ts := startServer(t, Config{})

	err := dial(ts.addr, "root", ssh.Password("toor"))
	if err == nil || !strings.Contains(err.Error(), "unable to authenticate") {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	waitIdle(t, ts.coord)

	conns, attempts := ts.rec.snapshot()
	if len(conns) != 1 || conns[0] != "127.0.0.1" {
		t.Fatalf("connections = %v", conns)
	}
	var pw []model.Attempt
	for _, a := range attempts {
		if a.AuthType == model.AuthPassword {
			pw = append(pw, a)
		}
	}
	if len(pw) != 1 {
		t.Fatalf("expected one password attempt, got %+v", attempts)
	}
	want := model.Attempt{ClientIP: "127.0.0.1", Port: 2222, AuthType: model.AuthPassword, Username: "root", Secret: "toor"}
	if pw[0] != want {
		t.Fatalf("attempt = %+v; want %+v", pw[0], want)
	}
	// x/crypto clients always probe with "none" first.
	if attempts[0].AuthType != model.AuthNone || attempts[0].Username != "root" || attempts[0].Secret != "" {
		t.Fatalf("expected leading none probe, got %+v", attempts[0])
	}
}

func TestPublicKeyAttemptRecordsFingerprint(t *testing.T) {
	ts := startServer(t, Config{})
	clientKey := testutil.NewSigner(t)

	if err := dial(ts.addr, "admin", ssh.PublicKeys(clientKey)); err == nil {
		t.Fatalf("expected authentication failure")
	}
	waitIdle(t, ts.coord)

	_, attempts := ts.rec.snapshot()
	var found bool
	for _, a := range attempts {
		if a.AuthType == model.AuthPublicKey {
			found = true
			if a.Username != "admin" || a.Secret != ssh.FingerprintSHA256(clientKey.PublicKey()) {
				t.Fatalf("unexpected publickey attempt: %+v", a)
			}
		}
	}
	if !found {
		t.Fatalf("no publickey attempt recorded: %+v", attempts)
	}
}

func TestKeyboardInteractiveNeverChallenged(t *testing.T) {
	ts := startServer(t, Config{})

	var challenged bool
	challenge := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		challenged = true
		return make([]string, len(questions)), nil
	})
	if err := dial(ts.addr, "root", challenge); err == nil {
		t.Fatalf("expected authentication failure")
	}
	waitIdle(t, ts.coord)

	if challenged {
		t.Fatalf("client must not receive a challenge")
	}
	_, attempts := ts.rec.snapshot()
	for _, a := range attempts {
		if a.AuthType != model.AuthNone {
			t.Fatalf("only the none probe may be recorded, got %+v", a)
		}
	}
}

func TestServerVersionBanner(t *testing.T) {
	ts := startServer(t, Config{ServerVersion: "SSH-2.0-OpenSSH_9.0"})

	conn, err := net.DialTimeout("tcp", ts.addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read banner: %v", err)
	}
	if line != "SSH-2.0-OpenSSH_9.0\r\n" {
		t.Fatalf("banner = %q", line)
	}
}

func TestMalformedClientDoesNotStopListener(t *testing.T) {
	ts := startServer(t, Config{})

	conn, err := net.DialTimeout("tcp", ts.addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, _ = conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	_ = conn.Close()

	if err := dial(ts.addr, "root", ssh.Password("123456")); err == nil {
		t.Fatalf("expected authentication failure")
	}
	testutil.WaitFor(t, 5*time.Second, "expected 2 connection events", func() bool {
		conns, _ := ts.rec.snapshot()
		return len(conns) == 2
	})
	waitIdle(t, ts.coord)

	_, attempts := ts.rec.snapshot()
	var passwords int
	for _, a := range attempts {
		if a.AuthType == model.AuthPassword {
			passwords++
		}
	}
	if passwords != 1 {
		t.Fatalf("expected one password attempt, got %d", passwords)
	}
}

func TestConnectionTimeoutClosesIdleClient(t *testing.T) {
	ts := startServer(t, Config{ConnectionTimeout: 200 * time.Millisecond})

	conn, err := net.DialTimeout("tcp", ts.addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	buf := make([]byte, 512)
	start := time.Now()
	for {
		if _, err := conn.Read(buf); err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				t.Fatalf("server kept idle connection open")
			}
			break
		}
	}
	if time.Since(start) > 4*time.Second {
		t.Fatalf("idle connection closed too late")
	}
	waitIdle(t, ts.coord)
}

func TestRejectionDelayApplied(t *testing.T) {
	ts := startServer(t, Config{RejectionDelay: 150 * time.Millisecond})

	start := time.Now()
	if err := dial(ts.addr, "root", ssh.Password("toor")); err == nil {
		t.Fatalf("expected authentication failure")
	}
	// none probe + password, each delayed.
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Fatalf("rejections returned after %s; expected delay", elapsed)
	}
}

func TestServeReturnsErrServerClosed(t *testing.T) {
	coord := honeypot.NewCoordinator(&memRecorder{}, 2222)
	srv, err := New(Config{ServerVersion: "SSH-2.0-OpenSSH_9.0"}, coord, []ssh.Signer{testutil.NewSigner(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// Hold a connection open so shutdown must drop it.
	conn, err := net.DialTimeout("tcp", ln.Addr().String(), 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, ErrServerClosed) {
			t.Fatalf("Serve returned %v; want ErrServerClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
	if srv.Addr() == nil {
		t.Fatalf("Addr must be set after Serve")
	}
}

func TestNewValidatesArguments(t *testing.T) {
	coord := honeypot.NewCoordinator(&memRecorder{}, 2222)
	if _, err := New(Config{}, nil, []ssh.Signer{testutil.NewSigner(t)}); err == nil {
		t.Fatalf("expected error without coordinator")
	}
	if _, err := New(Config{}, coord, nil); err == nil {
		t.Fatalf("expected error without host keys")
	}
}
