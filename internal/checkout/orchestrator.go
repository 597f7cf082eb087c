package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Samryeshetu/amazon-full-stack/internal/basket"
	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/Samryeshetu/amazon-full-stack/internal/processor"
)

var (
	ErrCheckoutInFlight     = errors.New("a checkout attempt is already in progress")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrNoShopper            = errors.New("no shopper is signed in")
	ErrInvalidTotal         = errors.New("basket total is not a valid amount")
	ErrIllegalTransition    = errors.New("illegal transition of checkout state")
)

// IntentCreator requests a payment authorization for a checkout total and
// returns the confirmation token.
type IntentCreator interface {
	CreateIntent(ctx context.Context, total int64) (string, error)
}

// Confirmer completes the payment with the processor using the token and
// the locally collected payment method.
type Confirmer interface {
	ConfirmIntent(ctx context.Context, clientSecret string, card processor.CardDetails) (*processor.ConfirmResult, error)
}

// OrderWriter persists the completed order, keyed by settlement id.
type OrderWriter interface {
	Put(ctx context.Context, order *domain.Order) error
}

// Orchestrator drives one checkout attempt end to end:
//
//	IDLE -> SUBMITTING -> AWAITING_CONFIRMATION -> PERSISTING -> COMPLETE
//
// with FAILED reachable from any non-terminal state. At most one attempt is
// in flight per session; Submit refuses re-entry while an attempt runs, so
// a rapid double-submit cannot allocate two authorizations.
type Orchestrator struct {
	intents   IntentCreator
	confirmer Confirmer
	orders    OrderWriter
	basket    *basket.Store

	mu    sync.Mutex
	state domain.CheckoutState
}

func NewOrchestrator(intents IntentCreator, confirmer Confirmer, orders OrderWriter, b *basket.Store) *Orchestrator {
	return &Orchestrator{
		intents:   intents,
		confirmer: confirmer,
		orders:    orders,
		basket:    b,
		state:     domain.CheckoutStateIdle,
	}
}

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs the checkout sequence for the current basket. A nil return
// means the payment was confirmed, the order persisted, and the basket
// cleared; the caller can move to the order-history view. Any failure is
// returned with the originating message and leaves the basket untouched so
// the shopper can resubmit.
//
// The confirmation step may block on processor-side shopper interaction;
// no timeout is imposed here beyond what ctx carries.
func (o *Orchestrator) Submit(ctx context.Context, card processor.CardDetails) error {
	shopper, items, total, err := o.begin(card)
	if err != nil {
		return err
	}

	clientSecret, err := o.intents.CreateIntent(ctx, total)
	if err != nil {
		return o.fail(fmt.Errorf("payment authorization failed: %w", err))
	}

	if err := o.transition(domain.CheckoutStateAwaitingConfirmation); err != nil {
		return o.fail(err)
	}

	confirmed, err := o.confirmer.ConfirmIntent(ctx, clientSecret, card)
	if err != nil {
		return o.fail(fmt.Errorf("payment confirmation failed: %w", err))
	}

	if err := o.transition(domain.CheckoutStatePersisting); err != nil {
		return o.fail(err)
	}

	order := &domain.Order{
		ID:      confirmed.SettlementID,
		Shopper: *shopper,
		Items:   domain.SnapshotItems(items),
		Total:   total,
	}

	if err := o.orders.Put(ctx, order); err != nil {
		// The charge succeeded but the record write did not. Resubmitting
		// would charge again, so the basket stays intact and the settlement
		// id is surfaced for reconciliation.
		log.Printf("order write failed after confirmed settlement %v: %v", confirmed.SettlementID, err)
		return o.fail(fmt.Errorf("order not recorded for settlement %s: %w", confirmed.SettlementID, err))
	}

	if err := o.transition(domain.CheckoutStateComplete); err != nil {
		return o.fail(err)
	}

	o.basket.Dispatch(basket.EmptyBasket{})
	return nil
}

// begin validates the entry guards and claims the single in-flight slot.
// Guard failures leave the state machine in IDLE.
func (o *Orchestrator) begin(card processor.CardDetails) (*domain.ShopperRef, []domain.BasketItem, int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.IsTerminal() && o.state != domain.CheckoutStateIdle {
		return nil, nil, 0, ErrCheckoutInFlight
	}
	o.state = domain.CheckoutStateIdle

	if card.PaymentMethod == "" {
		return nil, nil, 0, ErrMissingPaymentMethod
	}

	shopper := o.basket.Shopper()
	if shopper == nil {
		return nil, nil, 0, ErrNoShopper
	}

	items := o.basket.Snapshot()
	total := domain.BasketTotal(items)
	if total < 0 {
		return nil, nil, 0, ErrInvalidTotal
	}

	if !domain.CanTransitionTo(o.state, domain.CheckoutStateSubmitting) {
		return nil, nil, 0, ErrIllegalTransition
	}
	o.state = domain.CheckoutStateSubmitting

	return shopper, items, total, nil
}

func (o *Orchestrator) transition(to domain.CheckoutState) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !domain.CanTransitionTo(o.state, to) {
		return ErrIllegalTransition
	}
	o.state = to
	return nil
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	if domain.CanTransitionTo(o.state, domain.CheckoutStateFailed) {
		o.state = domain.CheckoutStateFailed
	}
	o.mu.Unlock()
	return err
}
