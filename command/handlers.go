package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// MutatingService is the slice of the payment core the command handlers
// drive.
type MutatingService interface {
	Login(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	InitiatePayment(ctx context.Context, req core.TransactionRequest) (core.InitiateResult, error)
	ResolveStatus(ctx context.Context, transactionID string, event core.StatusEvent) error
	SweepOrphanedScaEntries(ctx context.Context, olderThan time.Duration) (int, error)
}

type InitiateLoginCommand struct {
	service MutatingService
}

func NewInitiateLoginCommand(service MutatingService) *InitiateLoginCommand {
	return &InitiateLoginCommand{service: service}
}

func (c *InitiateLoginCommand) Execute(ctx context.Context, _ InitiateLoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: login service is required")
	}
	token, err := c.service.Login(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, token)
	return nil
}

type InitiateLogoutCommand struct {
	service MutatingService
}

func NewInitiateLogoutCommand(service MutatingService) *InitiateLogoutCommand {
	return &InitiateLogoutCommand{service: service}
}

func (c *InitiateLogoutCommand) Execute(ctx context.Context, _ InitiateLogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: logout service is required")
	}
	return c.service.Logout(ctx)
}

type InitiatePaymentCommand struct {
	service MutatingService
}

func NewInitiatePaymentCommand(service MutatingService) *InitiatePaymentCommand {
	return &InitiatePaymentCommand{service: service}
}

func (c *InitiatePaymentCommand) Execute(ctx context.Context, msg InitiatePaymentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: payment service is required")
	}
	out, err := c.service.InitiatePayment(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ResolveStatusCommand struct {
	service MutatingService
}

func NewResolveStatusCommand(service MutatingService) *ResolveStatusCommand {
	return &ResolveStatusCommand{service: service}
}

func (c *ResolveStatusCommand) Execute(ctx context.Context, msg ResolveStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: status service is required")
	}
	return c.service.ResolveStatus(ctx, msg.TransactionID, msg.Event)
}

type SweepOrphansCommand struct {
	service MutatingService
}

func NewSweepOrphansCommand(service MutatingService) *SweepOrphansCommand {
	return &SweepOrphansCommand{service: service}
}

func (c *SweepOrphansCommand) Execute(ctx context.Context, msg SweepOrphansMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sweep service is required")
	}
	swept, err := c.service.SweepOrphanedScaEntries(ctx, msg.OlderThan)
	if err != nil {
		return err
	}
	storeResult(ctx, swept)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
