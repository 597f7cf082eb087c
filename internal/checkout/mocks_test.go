package checkout

import (
	"context"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/Samryeshetu/amazon-full-stack/internal/processor"
)

// MockIntentCreator implements IntentCreator for testing
type MockIntentCreator struct {
	ClientSecret string
	Err          error
	GotTotal     int64
	Calls        int
}

func (m *MockIntentCreator) CreateIntent(_ context.Context, total int64) (string, error) {
	m.Calls++
	m.GotTotal = total
	if m.Err != nil {
		return "", m.Err
	}
	return m.ClientSecret, nil
}

// MockConfirmer implements Confirmer for testing
type MockConfirmer struct {
	Result    *processor.ConfirmResult
	Err       error
	GotSecret string
	GotCard   processor.CardDetails
	Calls     int

	// Block, when set, holds the confirmation until released, emulating a
	// processor-side shopper challenge.
	Block chan struct{}
}

func (m *MockConfirmer) ConfirmIntent(_ context.Context, clientSecret string, card processor.CardDetails) (*processor.ConfirmResult, error) {
	m.Calls++
	m.GotSecret = clientSecret
	m.GotCard = card
	if m.Block != nil {
		<-m.Block
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockOrderWriter implements OrderWriter for testing
type MockOrderWriter struct {
	Err      error
	GotOrder *domain.Order
	Calls    int
}

func (m *MockOrderWriter) Put(_ context.Context, order *domain.Order) error {
	m.Calls++
	m.GotOrder = order
	return m.Err
}
