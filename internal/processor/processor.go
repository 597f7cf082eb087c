package processor

import (
	"context"
	"fmt"
)

// Intent is a pending authorization created at the processor. The client
// secret is the single-use token the confirmation step needs; it must not be
// persisted or logged.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// ConfirmResult is the outcome of confirming an intent. SettlementID keys
// the order record.
type ConfirmResult struct {
	SettlementID string
	Status       string
}

// CardDetails carries the locally collected payment-method reference, a
// tokenized handle issued by the processor's card capture component.
type CardDetails struct {
	PaymentMethod string
}

type Client interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
	ConfirmIntent(ctx context.Context, clientSecret string, card CardDetails) (*ConfirmResult, error)
}

// APIError is a failure reported by the processor itself, as opposed to a
// transport failure. The message is surfaced to the shopper verbatim.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("processor error %s", e.Code)
}
