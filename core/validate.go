package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ValidateTransaction structurally checks a checkout payload before any
// network call is made. Currency format is left to the backend.
func ValidateTransaction(req TransactionRequest) error {
	var fields []goerrors.FieldError
	if req.Amount <= 0 {
		fields = append(fields, goerrors.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("amount must be greater than zero, got %v", req.Amount),
		})
	}
	if strings.TrimSpace(req.Currency) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "currency",
			Message: "currency is required",
		})
	}
	if strings.TrimSpace(req.MerchantName) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "merchantName",
			Message: "merchant name is required",
		})
	}
	if len(fields) == 0 {
		return nil
	}
	return goerrors.NewValidation("core: invalid transaction data", fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(PaymentErrorInvalidTransaction)
}
