package command

import (
	"strings"
	"time"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const (
	TypeInitiateLogin   = "payflow.command.login.initiate"
	TypeInitiateLogout  = "payflow.command.logout.initiate"
	TypeInitiatePayment = "payflow.command.payment.initiate"
	TypeResolveStatus   = "payflow.command.status.resolve"
	TypeSweepOrphans    = "payflow.command.sca.sweep_orphans"
)

type InitiateLoginMessage struct{}

func (InitiateLoginMessage) Type() string { return TypeInitiateLogin }

func (InitiateLoginMessage) Validate() error { return nil }

type InitiateLogoutMessage struct{}

func (InitiateLogoutMessage) Type() string { return TypeInitiateLogout }

func (InitiateLogoutMessage) Validate() error { return nil }

type InitiatePaymentMessage struct {
	Request core.TransactionRequest
}

func (InitiatePaymentMessage) Type() string { return TypeInitiatePayment }

func (m InitiatePaymentMessage) Validate() error {
	if m.Request.Amount <= 0 {
		return commandValidationError("amount", "amount must be greater than zero")
	}
	if strings.TrimSpace(m.Request.Currency) == "" {
		return commandValidationError("currency", "currency is required")
	}
	if strings.TrimSpace(m.Request.MerchantName) == "" {
		return commandValidationError("merchantName", "merchant name is required")
	}
	return nil
}

type ResolveStatusMessage struct {
	TransactionID string
	Event         core.StatusEvent
}

func (ResolveStatusMessage) Type() string { return TypeResolveStatus }

func (m ResolveStatusMessage) Validate() error {
	if strings.TrimSpace(m.TransactionID) == "" {
		return commandValidationError("transactionId", "transaction id is required")
	}
	return nil
}

type SweepOrphansMessage struct {
	OlderThan time.Duration
}

func (SweepOrphansMessage) Type() string { return TypeSweepOrphans }

func (m SweepOrphansMessage) Validate() error {
	if m.OlderThan < 0 {
		return commandValidationError("olderThan", "older_than must not be negative")
	}
	return nil
}
