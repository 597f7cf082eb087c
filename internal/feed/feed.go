package feed

import (
	"context"
	"log"
	"sync"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/Samryeshetu/amazon-full-stack/internal/orders"
)

// Subscriber opens a live order subscription for one shopper.
type Subscriber interface {
	Subscribe(ctx context.Context, shopperID string) (*orders.Subscription, error)
}

// IdentityWatcher reports shopper sign-in/sign-out; nil means signed out.
type IdentityWatcher interface {
	WatchShopper() (<-chan *domain.ShopperRef, func())
}

// Feed maintains a live, ordered view of the signed-in shopper's orders. It
// re-subscribes whenever the identity changes and clears the view on
// sign-out. A failed subscribe for the shopper already on screen keeps the
// last good list instead of flashing an empty history over a transient read
// error; a failed subscribe for a different shopper clears the view.
type Feed struct {
	store    Subscriber
	identity IdentityWatcher

	mu     sync.RWMutex
	orders []domain.Order
}

func NewFeed(store Subscriber, identity IdentityWatcher) *Feed {
	return &Feed{
		store:    store,
		identity: identity,
	}
}

// Orders returns the most recent emission, newest first.
func (f *Feed) Orders() []domain.Order {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.Order(nil), f.orders...)
}

// Run blocks until ctx is cancelled, tracking identity changes and feeding
// the view from the active subscription. The subscription is cancelled
// promptly on identity change and on teardown, so no listener leaks.
func (f *Feed) Run(ctx context.Context) {
	identities, stop := f.identity.WatchShopper()
	defer stop()

	var sub *orders.Subscription
	var updates <-chan []domain.Order
	var viewShopperID string // whose orders the view currently holds
	defer func() {
		if sub != nil {
			sub.Cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case shopper := <-identities:
			if sub != nil {
				sub.Cancel()
				sub = nil
				updates = nil
			}

			if shopper == nil {
				f.set(nil)
				viewShopperID = ""
				continue
			}

			next, err := f.store.Subscribe(ctx, shopper.ID)
			if err != nil {
				log.Printf("order feed: subscribe failed for shopper %v: %v", shopper.ID, err)
				// Keep the last list only when it belongs to this shopper;
				// another shopper's history must never carry across.
				if shopper.ID != viewShopperID {
					f.set(nil)
					viewShopperID = shopper.ID
				}
				continue
			}
			sub = next
			updates = next.Updates()
			viewShopperID = shopper.ID

		case snapshot, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			f.set(snapshot)
		}
	}
}

func (f *Feed) set(snapshot []domain.Order) {
	f.mu.Lock()
	f.orders = snapshot
	f.mu.Unlock()
}
