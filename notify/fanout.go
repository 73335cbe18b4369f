// Package notify fans a payment status event out to the user. The popup is
// tried first; when it is not open the event degrades to a durable system
// notification so the outcome is never silently lost.
package notify

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// UISink delivers an event to an ephemeral UI surface such as the popup.
// Push returns an error when no surface is currently listening.
type UISink interface {
	Push(ctx context.Context, event core.StatusEvent) error
}

// SystemNotification is a durable host-level notification. The ID is the
// transaction id so repeated deliveries replace rather than stack.
type SystemNotification struct {
	ID      string
	Title   string
	Message string
	IconURL string
}

type SystemNotifier interface {
	Notify(ctx context.Context, notification SystemNotification) error
}

type Config struct {
	UI      UISink
	System  SystemNotifier
	IconURL string
	Logger  core.Logger
}

// FanOut implements core.StatusSink over a primary UI sink and a system
// notification fallback.
type FanOut struct {
	ui      UISink
	system  SystemNotifier
	iconURL string
	logger  core.Logger
}

func NewFanOut(cfg Config) *FanOut {
	iconURL := strings.TrimSpace(cfg.IconURL)
	if iconURL == "" {
		iconURL = "icons/icon128.png"
	}
	return &FanOut{
		ui:      cfg.UI,
		system:  cfg.System,
		iconURL: iconURL,
		logger:  glog.Ensure(cfg.Logger),
	}
}

// Deliver pushes the event to the UI sink and falls back to a system
// notification when that fails. A failing fallback is logged and swallowed;
// the outcome is already recorded in the transaction ledger upstream.
func (f *FanOut) Deliver(ctx context.Context, transactionID string, event core.StatusEvent) error {
	if f == nil {
		return goerrors.New("notify: fanout is nil", goerrors.CategoryInternal).
			WithTextCode(core.PaymentErrorInternal)
	}
	transactionID = strings.TrimSpace(transactionID)
	if event.TransactionID == "" {
		event.TransactionID = transactionID
	}

	if f.ui != nil {
		err := f.ui.Push(ctx, event)
		if err == nil {
			return nil
		}
		f.logger.Debug("ui surface unavailable; falling back to system notification",
			"transaction_id", transactionID,
			"error", err.Error(),
		)
	}

	if f.system == nil {
		f.logger.Warn("no system notifier configured; status event dropped",
			"transaction_id", transactionID,
		)
		return nil
	}
	notification := SystemNotification{
		ID:      notificationID(transactionID),
		Title:   fmt.Sprintf("Payment %s", event.Status),
		Message: notificationMessage(event),
		IconURL: f.iconURL,
	}
	if err := f.system.Notify(ctx, notification); err != nil {
		f.logger.Error("system notification failed",
			"transaction_id", transactionID,
			"status", string(event.Status),
			"error", err.Error(),
		)
	}
	return nil
}

func notificationID(transactionID string) string {
	if transactionID != "" {
		return transactionID
	}
	return "finsec-payment"
}

func notificationMessage(event core.StatusEvent) string {
	if message := strings.TrimSpace(event.Message); message != "" {
		return message
	}
	return fmt.Sprintf("Your payment has completed with status: %s.", event.Status)
}

var _ core.StatusSink = (*FanOut)(nil)
