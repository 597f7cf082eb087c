package intent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Samryeshetu/amazon-full-stack/internal/processor"
)

var ErrInvalidAmount = errors.New("amount must be a positive number of minor currency units")

// Service creates payment authorizations for checkout totals. It does not
// retry processor failures: a failed create is ambiguous about whether an
// authorization was allocated, so blind retry risks a duplicate hold.
type Service struct {
	processor processor.Client
	currency  string
}

func NewService(p processor.Client) *Service {
	return &Service{
		processor: p,
		currency:  "usd",
	}
}

// CreateIntent asks the processor for a pending authorization of amount
// minor units and returns the confirmation token. The authorization is not
// captured here; it is abandoned if the client never confirms it.
func (s *Service) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	created, err := s.processor.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}

	log.Printf("payment intent created for amount %d %s", amount, s.currency)
	return created.ClientSecret, nil
}
