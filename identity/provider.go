// Package identity wraps the host browser's credential broker behind the
// token contracts consumed by the payment core. The broker owns caching and
// any interactive consent UI; this package only normalizes its results and
// failures.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const defaultAcquireTimeout = 30 * time.Second

var ErrTokenUnavailable = errors.New("identity: token unavailable")

type TokenUnavailableError struct {
	Cause error
}

func (e *TokenUnavailableError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrTokenUnavailable.Error()
	}
	return ErrTokenUnavailable.Error() + ": " + e.Cause.Error()
}

func (e *TokenUnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return ErrTokenUnavailable
	}
	return errors.Join(ErrTokenUnavailable, e.Cause)
}

func (e *TokenUnavailableError) ToPaymentError() *goerrors.Error {
	message := ErrTokenUnavailable.Error()
	if e != nil && e.Cause != nil {
		message = e.Error()
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.PaymentErrorAuthFailed)
}

func tokenUnavailable(cause error) error {
	return &TokenUnavailableError{Cause: cause}
}

// TokenBroker is the host-side credential API. In the browser runtime this is
// backed by the identity surface (getAuthToken / removeCachedAuthToken); tests
// and headless deployments supply their own.
type TokenBroker interface {
	GetToken(ctx context.Context, interactive bool) (string, error)
	RemoveCachedToken(ctx context.Context, token string) error
}

type Config struct {
	Broker         TokenBroker
	AcquireTimeout time.Duration
	Logger         core.Logger
}

// Provider adapts a TokenBroker to core.TokenSource and core.TokenRevoker.
type Provider struct {
	broker         TokenBroker
	acquireTimeout time.Duration
	logger         core.Logger
}

func NewProvider(cfg Config) *Provider {
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &Provider{
		broker:         cfg.Broker,
		acquireTimeout: acquireTimeout,
		logger:         cfg.Logger,
	}
}

// Acquire fetches a bearer credential from the broker. Non-interactive calls
// fail fast when no credential is cached; interactive calls may block on a
// consent prompt, bounded by the acquire timeout.
func (p *Provider) Acquire(ctx context.Context, interactive bool) (string, error) {
	if p == nil || p.broker == nil {
		return "", tokenUnavailable(errors.New("broker is not configured"))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	acquireCtx := ctx
	cancel := func() {}
	if p.acquireTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
	}
	defer cancel()

	token, err := p.broker.GetToken(acquireCtx, interactive)
	if err != nil {
		return "", tokenUnavailable(err)
	}
	token = strings.TrimSpace(token)
	if token == "" && interactive {
		// A silent miss is an expected cache state; an interactive miss is
		// the broker failing to produce anything after prompting.
		return "", tokenUnavailable(errors.New("broker returned an empty credential"))
	}
	return token, nil
}

// RemoveCached drops the credential from the broker's cache so the next
// interactive acquire starts a fresh grant.
func (p *Provider) RemoveCached(ctx context.Context, credential string) error {
	if p == nil || p.broker == nil {
		return tokenUnavailable(errors.New("broker is not configured"))
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.broker.RemoveCachedToken(ctx, credential); err != nil {
		return tokenUnavailable(err)
	}
	if p.logger != nil {
		p.logger.Debug("cached credential removed")
	}
	return nil
}

var (
	_ core.TokenSource  = (*Provider)(nil)
	_ core.TokenRevoker = (*Provider)(nil)
)
