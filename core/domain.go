package core

import (
	"strings"
	"time"
)

// PaymentStatus is the backend-visible lifecycle state of a transaction.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCompleted  PaymentStatus = "COMPLETED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusDeclined   PaymentStatus = "DECLINED"

	// Wire statuses used on router replies rather than by the backend.
	StatusPendingSCA PaymentStatus = "pending_sca"
	StatusSuccess    PaymentStatus = "success"
	StatusError      PaymentStatus = "error"
)

// IsTerminal reports whether no further transitions are accepted for a
// transaction carrying this status.
func (s PaymentStatus) IsTerminal() bool {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case StatusAuthorized, StatusCompleted, StatusFailed, StatusDeclined:
		return true
	default:
		return false
	}
}

func NormalizeStatus(value string) PaymentStatus {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	upper := PaymentStatus(strings.ToUpper(trimmed))
	if upper.IsTerminal() || upper == StatusPending {
		return upper
	}
	return PaymentStatus(trimmed)
}

// TransactionRequest is the checkout payload produced by the page-detection
// collaborator. Consumed exactly once per submission attempt.
type TransactionRequest struct {
	Amount       float64        `json:"amount"`
	Currency     string         `json:"currency"`
	MerchantName string         `json:"merchantName"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// StatusEvent is a single status delivery for a transaction. The core keeps
// no history beyond the terminal-status ledger.
type StatusEvent struct {
	TransactionID string         `json:"transactionId"`
	Status        PaymentStatus  `json:"status"`
	Message       string         `json:"message,omitempty"`
	Error         string         `json:"error,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// PendingScaEntry correlates an opened authentication tab with the
// transaction awaiting out-of-band completion.
type PendingScaEntry struct {
	TransactionID string
	TabID         int
	RedirectURL   string
	CreatedAt     time.Time
}

// PaymentResponse is the decoded backend reply to a payment submission.
type PaymentResponse struct {
	RequiresSCA   bool           `json:"requiresSCA"`
	RedirectURL   string         `json:"redirectUrl"`
	TransactionID string         `json:"transactionId"`
	Status        PaymentStatus  `json:"status"`
	Message       string         `json:"message"`
	Raw           map[string]any `json:"-"`
}

// InitiateResult is what the orchestrator hands back to the originating
// router request.
type InitiateResult struct {
	Status        PaymentStatus
	TransactionID string
	Message       string
	Data          map[string]any
}

// TransactionState is the ledger row backing the once-terminal-always-terminal
// gate for late or duplicate resolutions.
type TransactionState struct {
	TransactionID string
	Status        PaymentStatus
	Terminal      bool
	UpdatedAt     time.Time
}

type ChannelConnState string

const (
	ChannelDisconnected ChannelConnState = "disconnected"
	ChannelConnecting   ChannelConnState = "connecting"
	ChannelOpen         ChannelConnState = "open"
)

// ChannelState is the externally observable push-channel singleton state.
type ChannelState struct {
	State             ChannelConnState
	ReconnectAttempts int
}

// TabUpdate is a browser tab navigation event delivered by the host.
type TabUpdate struct {
	TabID int
	URL   string
}
