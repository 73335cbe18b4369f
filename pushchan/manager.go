// Package pushchan maintains the singleton WebSocket channel over which the
// backend pushes payment status updates. It owns connection state, the
// exponential reconnect schedule, and credential refresh between attempts.
package pushchan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/gorilla/websocket"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const (
	messageTypeStatusUpdate = "paymentStatusUpdate"

	logoutCloseReason = "User logged out"

	closeWriteTimeout = 5 * time.Second
)

// Conn is the subset of a WebSocket connection the manager needs. Satisfied
// by *websocket.Conn.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens a WebSocket connection. The default implementation wraps
// gorilla's dialer; tests substitute their own.
type Dialer interface {
	DialContext(ctx context.Context, endpoint string, header http.Header) (Conn, error)
}

// GorillaDialer adapts *websocket.Dialer to the Dialer seam.
type GorillaDialer struct {
	Dialer *websocket.Dialer
}

func (d GorillaDialer) DialContext(ctx context.Context, endpoint string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, res, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if res != nil && res.Body != nil {
			res.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// StatusResolver receives every decoded status update. The payment core's
// ResolveStatus satisfies it.
type StatusResolver interface {
	ResolveStatus(ctx context.Context, transactionID string, event core.StatusEvent) error
}

type Config struct {
	Push     core.PushConfig
	Dialer   Dialer
	Tokens   core.TokenSource
	Resolver StatusResolver
	Logger   core.Logger
	Backoff  core.BackoffScheduler
}

// Manager is the push channel singleton. All state transitions happen under
// one mutex; the read loop runs on its own goroutine per connection.
type Manager struct {
	config   core.PushConfig
	dialer   Dialer
	tokens   core.TokenSource
	resolver StatusResolver
	logger   core.Logger
	backoff  core.BackoffScheduler

	mu       sync.Mutex
	conn     Conn
	state    core.ChannelConnState
	attempts int
	closing  bool
	stopCh   chan struct{}
}

func NewManager(cfg Config) *Manager {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = GorillaDialer{}
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = core.ExponentialBackoffScheduler{
			Base: cfg.Push.BaseReconnectDelay,
			Max:  cfg.Push.MaxReconnectDelay,
		}
	}
	return &Manager{
		config:   cfg.Push,
		dialer:   dialer,
		tokens:   cfg.Tokens,
		resolver: cfg.Resolver,
		logger:   glog.Ensure(cfg.Logger),
		backoff:  backoff,
		state:    core.ChannelDisconnected,
		stopCh:   make(chan struct{}),
	}
}

// Connect brings the channel up with the given credential. Calls while a
// connection is open or being established are no-ops.
func (m *Manager) Connect(ctx context.Context, credential string) error {
	if m == nil {
		return channelError("pushchan: manager is nil", goerrors.CategoryInternal, core.PaymentErrorInternal)
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return channelError(
			"pushchan: cannot connect without a credential",
			goerrors.CategoryAuth,
			core.PaymentErrorAuthFailed,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.state == core.ChannelOpen || m.state == core.ChannelConnecting {
		m.mu.Unlock()
		m.logger.Debug("push channel already open or connecting")
		return nil
	}
	m.state = core.ChannelConnecting
	m.closing = false
	stopCh := m.stopCh
	m.mu.Unlock()

	endpoint, err := m.endpointFor(credential)
	if err != nil {
		m.transitionToDisconnected()
		return err
	}

	conn, dialErr := m.dialer.DialContext(ctx, endpoint, nil)
	if dialErr != nil {
		m.transitionToDisconnected()
		m.scheduleReconnect(stopCh)
		return channelWrapError(dialErr, "pushchan: dial failed")
	}

	m.mu.Lock()
	if m.closing {
		// Disconnect raced the dial; drop the fresh connection.
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.conn = conn
	m.state = core.ChannelOpen
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Info("push channel established")
	go m.readLoop(conn, stopCh)
	return nil
}

// Disconnect closes the channel with a normal closure frame and cancels any
// pending reconnect. Safe to call repeatedly.
func (m *Manager) Disconnect() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	m.closing = true
	conn := m.conn
	m.conn = nil
	m.state = core.ChannelDisconnected
	m.attempts = 0
	close(m.stopCh)
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, logoutCloseReason)
	if err := conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(closeWriteTimeout)); err != nil {
		m.logger.Debug("close frame write failed", "error", err.Error())
	}
	return conn.Close()
}

func (m *Manager) State() core.ChannelState {
	if m == nil {
		return core.ChannelState{State: core.ChannelDisconnected}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return core.ChannelState{
		State:             m.state,
		ReconnectAttempts: m.attempts,
	}
}

func (m *Manager) endpointFor(credential string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(m.config.URL))
	if err != nil || strings.TrimSpace(m.config.URL) == "" {
		return "", channelError(
			"pushchan: push url is not configured",
			goerrors.CategoryInternal,
			core.PaymentErrorInternal,
		)
	}
	query := parsed.Query()
	query.Set("token", credential)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (m *Manager) readLoop(conn Conn, stopCh chan struct{}) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.handleConnectionClosed(conn, stopCh, err)
			return
		}
		m.handleMessage(payload)
	}
}

// handleMessage decodes one pushed frame. Malformed frames are logged and
// dropped; they never tear the connection down.
func (m *Manager) handleMessage(payload []byte) {
	var frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		m.logger.Error("malformed push frame", "error", err.Error())
		return
	}
	if frame.Type != messageTypeStatusUpdate || len(frame.Payload) == 0 {
		return
	}

	var event core.StatusEvent
	if err := json.Unmarshal(frame.Payload, &event); err != nil {
		m.logger.Error("malformed status payload", "error", err.Error())
		return
	}
	if m.resolver == nil {
		m.logger.Warn("status update received with no resolver configured",
			"transaction_id", event.TransactionID,
		)
		return
	}
	if err := m.resolver.ResolveStatus(context.Background(), event.TransactionID, event); err != nil {
		m.logger.Error("status resolution failed",
			"transaction_id", event.TransactionID,
			"error", err.Error(),
		)
	}
}

func (m *Manager) handleConnectionClosed(conn Conn, stopCh chan struct{}, cause error) {
	_ = conn.Close()

	m.mu.Lock()
	current := m.conn == conn
	if current {
		m.conn = nil
		m.state = core.ChannelDisconnected
	}
	intentional := m.closing
	m.mu.Unlock()

	// A Disconnect or a newer Connect may have superseded this connection
	// before its read loop observed the close. Only the current connection
	// gets to drive state transitions and reconnects.
	if !current {
		m.logger.Debug("ignoring close of superseded connection")
		return
	}
	if intentional {
		m.logger.Info("push channel closed")
		return
	}
	m.logger.Warn("push channel lost; scheduling reconnect", "error", cause.Error())
	m.scheduleReconnect(stopCh)
}

// scheduleReconnect waits out the backoff delay, re-acquires a credential
// silently, and redials. The attempt counter only resets on a successful
// open.
func (m *Manager) scheduleReconnect(stopCh chan struct{}) {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	maxAttempts := m.config.MaxReconnectAttempts
	if m.attempts >= maxAttempts {
		m.mu.Unlock()
		m.logger.Error("push channel reconnect attempts exhausted", "attempts", maxAttempts)
		return
	}
	delay := m.backoff.NextDelay(m.attempts)
	m.attempts++
	m.mu.Unlock()

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-stopCh:
			return
		case <-timer.C:
		}

		if m.tokens == nil {
			m.logger.Error("cannot reconnect push channel without a token source")
			return
		}
		credential, err := m.tokens.Acquire(context.Background(), false)
		if err != nil || strings.TrimSpace(credential) == "" {
			m.logger.Error("credential refresh for reconnect failed")
			return
		}
		if err := m.Connect(context.Background(), credential); err != nil {
			m.logger.Warn("push channel reconnect failed", "error", err.Error())
		}
	}()
}

func (m *Manager) transitionToDisconnected() {
	m.mu.Lock()
	m.state = core.ChannelDisconnected
	m.mu.Unlock()
}

func channelError(message string, category goerrors.Category, textCode string) error {
	return goerrors.New(message, category).
		WithTextCode(textCode)
}

func channelWrapError(source error, message string) error {
	return goerrors.Wrap(source, goerrors.CategoryOperation, message).
		WithTextCode(core.PaymentErrorChannelClosed)
}

var _ core.ChannelConnector = (*Manager)(nil)
