package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

type stubDoer struct {
	response *http.Response
	err      error
	lastReq  *http.Request
	lastBody []byte
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.lastReq = req
	if req.Body != nil {
		s.lastBody, _ = io.ReadAll(req.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func jsonResponse(statusCode int, payload any) *http.Response {
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testRequest() core.TransactionRequest {
	return core.TransactionRequest{
		Amount:       10.00,
		Currency:     "USD",
		MerchantName: "Example Store",
	}
}

func TestSubmitPaymentSendsBearerAndJSONBody(t *testing.T) {
	doer := &stubDoer{response: jsonResponse(http.StatusOK, map[string]any{
		"transactionId": "tx-1",
		"status":        "COMPLETED",
	})}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	response, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}
	if response.TransactionID != "tx-1" || response.Status != core.StatusCompleted {
		t.Fatalf("unexpected response %+v", response)
	}

	if got := doer.lastReq.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", got)
	}
	if got := doer.lastReq.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type, got %q", got)
	}
	if doer.lastReq.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", doer.lastReq.Method)
	}
	if !strings.HasSuffix(doer.lastReq.URL.Path, "/payments") {
		t.Fatalf("expected payments path, got %s", doer.lastReq.URL.Path)
	}

	var sent core.TransactionRequest
	if err := json.Unmarshal(doer.lastBody, &sent); err != nil {
		t.Fatalf("request body is not json: %v", err)
	}
	if sent.Amount != 10.00 || sent.Currency != "USD" {
		t.Fatalf("unexpected request body %+v", sent)
	}
}

func TestSubmitPaymentExposesRawPayload(t *testing.T) {
	doer := &stubDoer{response: jsonResponse(http.StatusOK, map[string]any{
		"transactionId": "tx-1",
		"status":        "COMPLETED",
		"receiptUrl":    "https://backend.example/receipts/tx-1",
	})}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	response, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}
	if response.Raw["receiptUrl"] != "https://backend.example/receipts/tx-1" {
		t.Fatalf("raw payload must keep unmodeled fields, got %v", response.Raw)
	}
}

func TestSubmitPaymentRequiresCredential(t *testing.T) {
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(&stubDoer{}))

	_, err := client.SubmitPayment(context.Background(), "  ", testRequest())
	if !core.IsTextCode(err, core.PaymentErrorAuthFailed) {
		t.Fatalf("expected %s, got %v", core.PaymentErrorAuthFailed, err)
	}
}

func TestSubmitPaymentNetworkFailureIsExternal(t *testing.T) {
	doer := &stubDoer{err: io.ErrUnexpectedEOF}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	_, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if !core.IsTextCode(err, core.PaymentErrorBackendUnavailable) {
		t.Fatalf("expected %s, got %v", core.PaymentErrorBackendUnavailable, err)
	}
}

func TestSubmitPaymentNonOKUsesBackendMessage(t *testing.T) {
	doer := &stubDoer{response: jsonResponse(http.StatusPaymentRequired, map[string]any{
		"message": "Card declined by issuer.",
	})}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	_, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if richErr.Message != "Card declined by issuer." {
		t.Fatalf("expected backend message, got %q", richErr.Message)
	}
	if richErr.TextCode != core.PaymentErrorBackendUnavailable {
		t.Fatalf("expected %s, got %s", core.PaymentErrorBackendUnavailable, richErr.TextCode)
	}
}

func TestSubmitPaymentNonOKWithoutMessageFallsBack(t *testing.T) {
	doer := &stubDoer{response: jsonResponse(http.StatusInternalServerError, map[string]any{})}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	_, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if err == nil || !strings.Contains(err.Error(), "Backend payment initiation failed: 500") {
		t.Fatalf("expected fallback message with status code, got %v", err)
	}
}

func TestSubmitPaymentNonOKWithUnparseableBody(t *testing.T) {
	doer := &stubDoer{response: &http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(strings.NewReader("<html>gateway error</html>")),
	}}
	client := NewPaymentClient(core.DefaultConfig(), WithHTTPClient(doer))

	_, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if err == nil || !strings.Contains(err.Error(), unknownBackendErrorMessage) {
		t.Fatalf("expected generic backend error, got %v", err)
	}
}

func TestSubmitPaymentEnforcesResponseBodyLimit(t *testing.T) {
	oversized := strings.Repeat("x", 64)
	doer := &stubDoer{response: &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"padding":"` + oversized + `"}`)),
	}}
	client := NewPaymentClient(core.DefaultConfig(),
		WithHTTPClient(doer),
		WithMaxResponseBodyBytes(16),
	)

	_, err := client.SubmitPayment(context.Background(), "tok-1", testRequest())
	if !core.IsTextCode(err, core.PaymentErrorBackendUnavailable) {
		t.Fatalf("expected limit violation as backend failure, got %v", err)
	}
}
