package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const (
	ActionInitiateLogin   = "initiateLogin"
	ActionInitiateLogout  = "initiateLogout"
	ActionInitiatePayment = "initiatePayment"

	// ActionPaymentStatusUpdate is the outbound action used when pushing a
	// status event back to the popup surface. Listed here so both directions
	// of the message protocol live in one place.
	ActionPaymentStatusUpdate = "paymentStatusUpdate"

	ReplyStatusSuccess = "success"
	ReplyStatusError   = "error"

	unknownActionReply = "Unknown action"
)

// Message is an action-tagged request from an extension surface.
type Message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Sender describes where a message came from. TabID is zero for surfaces
// without a tab, such as the popup.
type Sender struct {
	Surface string `json:"surface,omitempty"`
	TabID   int    `json:"tabId,omitempty"`
}

// Reply is the single response produced for every dispatched message.
type Reply struct {
	Status        string         `json:"status"`
	Token         string         `json:"token,omitempty"`
	TransactionID string         `json:"transactionId,omitempty"`
	Message       string         `json:"message,omitempty"`
	Error         string         `json:"error,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

type Handler func(ctx context.Context, msg Message, sender Sender) (Reply, error)

// Orchestrator is the slice of the payment core the router drives.
type Orchestrator interface {
	Login(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	InitiatePayment(ctx context.Context, req core.TransactionRequest) (core.InitiateResult, error)
}

type Router struct {
	logger core.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRouter(logger core.Logger) *Router {
	return &Router{
		logger:   glog.Ensure(logger),
		handlers: map[string]Handler{},
	}
}

// NewPaymentRouter builds a router with the three payment actions wired to
// the orchestrator.
func NewPaymentRouter(orchestrator Orchestrator, logger core.Logger) (*Router, error) {
	if orchestrator == nil {
		return nil, inboundInternal("inbound: orchestrator is nil", nil)
	}
	router := NewRouter(logger)
	registrations := map[string]Handler{
		ActionInitiateLogin:   loginHandler(orchestrator),
		ActionInitiateLogout:  logoutHandler(orchestrator),
		ActionInitiatePayment: paymentHandler(orchestrator),
	}
	for action, handler := range registrations {
		if err := router.Register(action, handler); err != nil {
			return nil, err
		}
	}
	return router, nil
}

func (r *Router) Register(action string, handler Handler) error {
	if r == nil {
		return inboundInternal("inbound: router is nil", nil)
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return inboundBadInput("inbound: action is required", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", map[string]any{"action": action})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[action]; exists {
		return inboundError(
			fmt.Sprintf("inbound: handler already registered for action %q", action),
			goerrors.CategoryConflict,
			409,
			core.PaymentErrorInternal,
			map[string]any{"action": action},
		)
	}
	r.handlers[action] = handler
	return nil
}

// Dispatch routes one message and always returns exactly one reply. Handler
// errors and panics are converted into error replies; they never escape to
// the transport layer, which has no further way to answer the sender.
func (r *Router) Dispatch(ctx context.Context, msg Message, sender Sender) (reply Reply) {
	if r == nil {
		return Reply{Status: ReplyStatusError, Error: "router is not configured"}
	}
	action := strings.TrimSpace(msg.Action)

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("message handler panicked", "action", action, "panic", fmt.Sprint(recovered))
			reply = Reply{Status: ReplyStatusError, Error: "internal error"}
		}
	}()

	handler := r.handlerFor(action)
	if handler == nil {
		r.logger.Warn("unknown message action", "action", action)
		return Reply{Status: ReplyStatusError, Error: unknownActionReply}
	}

	result, err := handler(ctx, msg, sender)
	if err != nil {
		r.logger.Error("message handler failed", "action", action, "error", err.Error())
		return Reply{Status: ReplyStatusError, Error: replyErrorText(err)}
	}
	if strings.TrimSpace(result.Status) == "" {
		result.Status = ReplyStatusSuccess
	}
	return result
}

// DispatchJSON decodes a raw message, dispatches it, and encodes the reply.
// Malformed input still yields a well-formed error reply.
func (r *Router) DispatchJSON(ctx context.Context, raw []byte, sender Sender) []byte {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return mustMarshalReply(Reply{Status: ReplyStatusError, Error: "malformed message"})
	}
	return mustMarshalReply(r.Dispatch(ctx, msg, sender))
}

func (r *Router) handlerFor(action string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[action]
}

func loginHandler(orchestrator Orchestrator) Handler {
	return func(ctx context.Context, _ Message, _ Sender) (Reply, error) {
		token, err := orchestrator.Login(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Status: ReplyStatusSuccess, Token: token}, nil
	}
}

func logoutHandler(orchestrator Orchestrator) Handler {
	return func(ctx context.Context, _ Message, _ Sender) (Reply, error) {
		if err := orchestrator.Logout(ctx); err != nil {
			return Reply{}, err
		}
		return Reply{Status: ReplyStatusSuccess}, nil
	}
}

func paymentHandler(orchestrator Orchestrator) Handler {
	return func(ctx context.Context, msg Message, _ Sender) (Reply, error) {
		var req core.TransactionRequest
		if len(msg.Data) == 0 {
			return Reply{}, inboundBadInput("inbound: payment data is required", map[string]any{
				"action": ActionInitiatePayment,
			})
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return Reply{}, inboundBadInput("inbound: malformed payment data", map[string]any{
				"action": ActionInitiatePayment,
			})
		}
		result, err := orchestrator.InitiatePayment(ctx, req)
		if err != nil {
			return Reply{}, err
		}
		return Reply{
			Status:        string(result.Status),
			TransactionID: result.TransactionID,
			Message:       result.Message,
			Data:          result.Data,
		}, nil
	}
}

// replyErrorText picks the user-facing error string for a reply. Rich errors
// carry a curated message; anything else is used verbatim.
func replyErrorText(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && strings.TrimSpace(richErr.Message) != "" {
		return richErr.Message
	}
	return err.Error()
}

func mustMarshalReply(reply Reply) []byte {
	encoded, err := json.Marshal(reply)
	if err != nil {
		return []byte(`{"status":"error","error":"internal error"}`)
	}
	return encoded
}
