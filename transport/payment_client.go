// Package transport implements the HTTP client side of the backend payment
// API. It owns request shaping, response body limits, and the translation of
// HTTP failures into the payment error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const (
	defaultClientTimeout           = 30 * time.Second
	defaultResponseBodyLimit int64 = 1 << 20 // 1 MiB

	unknownBackendErrorMessage = "Unknown backend error."
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PaymentClient submits validated transactions to the backend payment
// endpoint with bearer authentication.
type PaymentClient struct {
	client               HTTPDoer
	config               core.Config
	logger               core.Logger
	maxResponseBodyBytes int64
}

type PaymentClientOption func(*PaymentClient)

func WithHTTPClient(client HTTPDoer) PaymentClientOption {
	return func(c *PaymentClient) {
		c.client = client
	}
}

func WithLogger(logger core.Logger) PaymentClientOption {
	return func(c *PaymentClient) {
		c.logger = logger
	}
}

func WithMaxResponseBodyBytes(limit int64) PaymentClientOption {
	return func(c *PaymentClient) {
		c.maxResponseBodyBytes = limit
	}
}

func NewPaymentClient(cfg core.Config, opts ...PaymentClientOption) *PaymentClient {
	client := &PaymentClient{
		config:               cfg,
		maxResponseBodyBytes: defaultResponseBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.client == nil {
		timeout := cfg.Backend.RequestTimeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		client.client = &http.Client{Timeout: timeout}
	}
	client.logger = glog.Ensure(client.logger)
	if client.maxResponseBodyBytes <= 0 {
		client.maxResponseBodyBytes = defaultResponseBodyLimit
	}
	return client
}

// backendErrorBody is the error payload shape the backend uses on non-2xx
// replies. Anything unparseable degrades to a generic message.
type backendErrorBody struct {
	Message string `json:"message"`
}

func (c *PaymentClient) SubmitPayment(
	ctx context.Context,
	credential string,
	req core.TransactionRequest,
) (core.PaymentResponse, error) {
	if c == nil || c.client == nil {
		return core.PaymentResponse{}, transportError(
			"transport: payment client requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return core.PaymentResponse{}, transportError(
			"transport: bearer credential is required",
			goerrors.CategoryAuth,
			http.StatusUnauthorized,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return core.PaymentResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode payment request",
			http.StatusBadRequest,
			nil,
		)
	}

	endpoint := c.config.PaymentsURL()
	requestCtx := ctx
	cancel := func() {}
	if c.config.Backend.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.config.Backend.RequestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return core.PaymentResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create payment request",
			http.StatusBadRequest,
			map[string]any{"url": endpoint},
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	startedAt := time.Now().UTC()
	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return core.PaymentResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: backend payment request failed",
			http.StatusBadGateway,
			map[string]any{"url": endpoint},
		)
	}
	defer httpRes.Body.Close()

	payload, err := c.readLimitedBody(httpRes)
	if err != nil {
		return core.PaymentResponse{}, err
	}
	c.logger.Debug("payment submission round trip",
		"status_code", httpRes.StatusCode,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return core.PaymentResponse{}, backendFailure(httpRes.StatusCode, payload)
	}

	var response core.PaymentResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return core.PaymentResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode backend payment response",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	// Raw carries the full backend payload for fan-out consumers that want
	// fields the typed response does not model.
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err == nil {
		response.Raw = raw
	}
	return response, nil
}

func (c *PaymentClient) readLimitedBody(res *http.Response) ([]byte, error) {
	limit := c.maxResponseBodyBytes
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read backend response body",
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode},
		)
	}
	if int64(len(body)) > limit {
		return nil, transportError(
			fmt.Sprintf("transport: backend response exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode, "response_limit_b": limit},
		)
	}
	return body, nil
}

func backendFailure(statusCode int, payload []byte) error {
	var message string
	var errBody backendErrorBody
	if err := json.Unmarshal(payload, &errBody); err != nil {
		message = unknownBackendErrorMessage
	} else if trimmed := strings.TrimSpace(errBody.Message); trimmed != "" {
		message = trimmed
	} else {
		message = fmt.Sprintf("Backend payment initiation failed: %d", statusCode)
	}
	return transportError(
		message,
		goerrors.CategoryExternal,
		http.StatusBadGateway,
		map[string]any{"status_code": statusCode},
	)
}

var _ core.PaymentSubmitter = (*PaymentClient)(nil)
