package pushchan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

type stubConn struct {
	frames chan []byte

	mu      sync.Mutex
	closed  bool
	control [][]byte
}

func newStubConn() *stubConn {
	return &stubConn{frames: make(chan []byte, 8)}
}

func (c *stubConn) ReadMessage() (int, []byte, error) {
	frame, ok := <-c.frames
	if !ok {
		return 0, nil, errors.New("connection reset")
	}
	return 1, frame, nil
}

func (c *stubConn) WriteControl(_ int, data []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.control = append(c.control, data)
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

func (c *stubConn) push(frame []byte) {
	c.frames <- frame
}

type stubDialer struct {
	mu        sync.Mutex
	conns     []*stubConn
	endpoints []string
	failures  int
}

func (d *stubDialer) DialContext(_ context.Context, endpoint string, _ http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints = append(d.endpoints, endpoint)
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	conn := newStubConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *stubDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.endpoints)
}

func (d *stubDialer) lastEndpoint() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.endpoints) == 0 {
		return ""
	}
	return d.endpoints[len(d.endpoints)-1]
}

func (d *stubDialer) conn(index int) *stubConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index >= len(d.conns) {
		return nil
	}
	return d.conns[index]
}

type stubResolver struct {
	mu     sync.Mutex
	events []core.StatusEvent
}

func (r *stubResolver) ResolveStatus(_ context.Context, _ string, event core.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *stubResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type stubTokens struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (s *stubTokens) Acquire(context.Context, bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if len(s.tokens) == 0 {
		return "", nil
	}
	token := s.tokens[0]
	if len(s.tokens) > 1 {
		s.tokens = s.tokens[1:]
	}
	return token, nil
}

type zeroBackoff struct{}

func (zeroBackoff) NextDelay(int) time.Duration { return 0 }

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func pushConfig() core.PushConfig {
	return core.PushConfig{
		URL:                  "wss://api.example.com/ws",
		BaseReconnectDelay:   time.Millisecond,
		MaxReconnectDelay:    10 * time.Millisecond,
		MaxReconnectAttempts: 10,
	}
}

func statusFrame(t *testing.T, transactionID string, status core.PaymentStatus) []byte {
	t.Helper()
	frame, err := json.Marshal(map[string]any{
		"type": messageTypeStatusUpdate,
		"payload": map[string]any{
			"transactionId": transactionID,
			"status":        string(status),
		},
	})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return frame
}

func TestConnectRequiresCredential(t *testing.T) {
	manager := NewManager(Config{Push: pushConfig(), Dialer: &stubDialer{}})
	err := manager.Connect(context.Background(), "  ")
	if !core.IsTextCode(err, core.PaymentErrorAuthFailed) {
		t.Fatalf("expected %s, got %v", core.PaymentErrorAuthFailed, err)
	}
}

func TestConnectIsIdempotentWhileOpen(t *testing.T) {
	dialer := &stubDialer{}
	manager := NewManager(Config{Push: pushConfig(), Dialer: dialer})

	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("second Connect returned error: %v", err)
	}
	if dialer.dialCount() != 1 {
		t.Fatalf("expected a single dial, got %d", dialer.dialCount())
	}
	if state := manager.State(); state.State != core.ChannelOpen {
		t.Fatalf("expected open channel, got %+v", state)
	}
	_ = manager.Disconnect()
}

func TestConnectAppendsEncodedTokenQueryParameter(t *testing.T) {
	dialer := &stubDialer{}
	manager := NewManager(Config{Push: pushConfig(), Dialer: dialer})

	if err := manager.Connect(context.Background(), "tok with spaces"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	parsed, err := url.Parse(dialer.lastEndpoint())
	if err != nil {
		t.Fatalf("endpoint is not a url: %v", err)
	}
	if got := parsed.Query().Get("token"); got != "tok with spaces" {
		t.Fatalf("expected token query parameter, got %q", got)
	}
	_ = manager.Disconnect()
}

func TestStatusFramesReachTheResolver(t *testing.T) {
	dialer := &stubDialer{}
	resolver := &stubResolver{}
	manager := NewManager(Config{Push: pushConfig(), Dialer: dialer, Resolver: resolver})

	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	dialer.conn(0).push(statusFrame(t, "tx-1", core.StatusCompleted))

	waitFor(t, "status delivery", func() bool { return resolver.count() == 1 })
	resolver.mu.Lock()
	event := resolver.events[0]
	resolver.mu.Unlock()
	if event.TransactionID != "tx-1" || event.Status != core.StatusCompleted {
		t.Fatalf("unexpected event %+v", event)
	}
	_ = manager.Disconnect()
}

func TestMalformedFramesAreDroppedWithoutKillingTheChannel(t *testing.T) {
	dialer := &stubDialer{}
	resolver := &stubResolver{}
	manager := NewManager(Config{Push: pushConfig(), Dialer: dialer, Resolver: resolver})

	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	conn := dialer.conn(0)
	conn.push([]byte("{not json"))
	conn.push([]byte(`{"type":"somethingElse","payload":{}}`))
	conn.push(statusFrame(t, "tx-2", core.StatusFailed))

	waitFor(t, "status delivery after bad frames", func() bool { return resolver.count() == 1 })
	if state := manager.State(); state.State != core.ChannelOpen {
		t.Fatalf("channel must stay open, got %+v", state)
	}
	_ = manager.Disconnect()
}

func TestDisconnectSendsNormalClosureAndStopsReconnect(t *testing.T) {
	dialer := &stubDialer{}
	manager := NewManager(Config{
		Push:    pushConfig(),
		Dialer:  dialer,
		Tokens:  &stubTokens{tokens: []string{"tok-fresh"}},
		Backoff: zeroBackoff{},
	})

	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	conn := dialer.conn(0)
	if err := manager.Disconnect(); err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}

	conn.mu.Lock()
	controls := len(conn.control)
	conn.mu.Unlock()
	if controls != 1 {
		t.Fatalf("expected one close frame, got %d", controls)
	}
	time.Sleep(50 * time.Millisecond)
	if dialer.dialCount() != 1 {
		t.Fatalf("intentional disconnect must not reconnect, dials=%d", dialer.dialCount())
	}
	if state := manager.State(); state.State != core.ChannelDisconnected {
		t.Fatalf("expected disconnected, got %+v", state)
	}
}

func TestDisconnectThenConnectYieldsOneCleanConnection(t *testing.T) {
	dialer := &stubDialer{}
	manager := NewManager(Config{
		Push:    pushConfig(),
		Dialer:  dialer,
		Tokens:  &stubTokens{tokens: []string{"tok-fresh"}},
		Backoff: zeroBackoff{},
	})

	if err := manager.Connect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if err := manager.Disconnect(); err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}
	if err := manager.Connect(context.Background(), "tok-2"); err != nil {
		t.Fatalf("second Connect returned error: %v", err)
	}

	// The first connection's read loop may observe its close only after the
	// second connect; that must neither dial again nor count as a lost
	// connection.
	time.Sleep(50 * time.Millisecond)
	if got := dialer.dialCount(); got != 2 {
		t.Fatalf("expected one dial per connect, got %d", got)
	}
	state := manager.State()
	if state.State != core.ChannelOpen || state.ReconnectAttempts != 0 {
		t.Fatalf("expected a clean open channel, got %+v", state)
	}

	first := dialer.conn(0)
	first.mu.Lock()
	firstClosed := first.closed
	first.mu.Unlock()
	if !firstClosed {
		t.Fatalf("expected superseded connection closed")
	}
	second := dialer.conn(1)
	second.mu.Lock()
	secondClosed := second.closed
	second.mu.Unlock()
	if secondClosed {
		t.Fatalf("expected fresh connection to stay open")
	}
	_ = manager.Disconnect()
}

func TestUnexpectedCloseReconnectsWithFreshCredential(t *testing.T) {
	dialer := &stubDialer{}
	tokens := &stubTokens{tokens: []string{"tok-fresh"}}
	manager := NewManager(Config{
		Push:    pushConfig(),
		Dialer:  dialer,
		Tokens:  tokens,
		Backoff: zeroBackoff{},
	})

	if err := manager.Connect(context.Background(), "tok-initial"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	// Simulate the server dropping the connection.
	dialer.conn(0).Close()

	waitFor(t, "reconnect dial", func() bool { return dialer.dialCount() >= 2 })
	parsed, err := url.Parse(dialer.lastEndpoint())
	if err != nil {
		t.Fatalf("endpoint is not a url: %v", err)
	}
	if got := parsed.Query().Get("token"); got != "tok-fresh" {
		t.Fatalf("reconnect must use a freshly acquired credential, got %q", got)
	}
	waitFor(t, "attempt counter reset", func() bool {
		state := manager.State()
		return state.State == core.ChannelOpen && state.ReconnectAttempts == 0
	})
	_ = manager.Disconnect()
}

func TestReconnectStopsAfterMaxAttempts(t *testing.T) {
	cfg := pushConfig()
	cfg.MaxReconnectAttempts = 2
	dialer := &stubDialer{failures: 100}
	manager := NewManager(Config{
		Push:    cfg,
		Dialer:  dialer,
		Tokens:  &stubTokens{tokens: []string{"tok"}},
		Backoff: zeroBackoff{},
	})

	if err := manager.Connect(context.Background(), "tok"); err == nil {
		t.Fatalf("expected dial error")
	}

	waitFor(t, "reconnect attempts to settle", func() bool { return dialer.dialCount() >= 3 })
	time.Sleep(50 * time.Millisecond)
	// Initial dial plus two retries; the counter then refuses further work.
	if got := dialer.dialCount(); got != 3 {
		t.Fatalf("expected exactly 3 dials, got %d", got)
	}
}
