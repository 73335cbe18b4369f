package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	PaymentErrorAuthFailed         = "FINSEC_AUTH_FAILED"
	PaymentErrorInvalidTransaction = "FINSEC_INVALID_TRANSACTION"
	PaymentErrorBackendUnavailable = "FINSEC_BACKEND_UNAVAILABLE"
	PaymentErrorProtocol           = "FINSEC_PROTOCOL_ERROR"
	PaymentErrorChannelClosed      = "FINSEC_CHANNEL_CLOSED"
	PaymentErrorScaConflict        = "FINSEC_SCA_CONFLICT"
	PaymentErrorUnknownAction      = "FINSEC_UNKNOWN_ACTION"
	PaymentErrorInternal           = "FINSEC_INTERNAL_ERROR"
)

func paymentErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePaymentErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "authentication failed"), strings.Contains(msg, "token"):
		return newPaymentError(err.Error(), goerrors.CategoryAuth, PaymentErrorAuthFailed)
	case strings.Contains(msg, "invalid transaction"):
		return newPaymentError(err.Error(), goerrors.CategoryValidation, PaymentErrorInvalidTransaction)
	case strings.Contains(msg, "backend"), strings.Contains(msg, "submission"):
		return newPaymentError(err.Error(), goerrors.CategoryExternal, PaymentErrorBackendUnavailable)
	case strings.Contains(msg, "channel"), strings.Contains(msg, "socket"):
		return newPaymentError(err.Error(), goerrors.CategoryOperation, PaymentErrorChannelClosed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newPaymentError(err.Error(), goerrors.CategoryBadInput, PaymentErrorInvalidTransaction)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePaymentErrorEnvelope(mapped)
}

func newPaymentError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensurePaymentErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensurePaymentErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = paymentHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultPaymentTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultPaymentTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return PaymentErrorInvalidTransaction
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return PaymentErrorAuthFailed
	case goerrors.CategoryConflict:
		return PaymentErrorScaConflict
	case goerrors.CategoryExternal:
		return PaymentErrorBackendUnavailable
	case goerrors.CategoryNotFound:
		return PaymentErrorUnknownAction
	case goerrors.CategoryOperation:
		return PaymentErrorChannelClosed
	default:
		return PaymentErrorInternal
	}
}

func paymentHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsTextCode reports whether err carries the given payment error text code.
func IsTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), strings.TrimSpace(textCode))
}
