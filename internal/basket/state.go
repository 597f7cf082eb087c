package basket

import (
	"sync"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
)

// Store is the application-state container for the shopper session: who is
// signed in and what is in the basket. All mutation goes through Dispatch
// with a typed action, so components read a consistent state instead of
// mutating shared globals.
type Store struct {
	mu       sync.RWMutex
	shopper  *domain.ShopperRef
	items    []domain.BasketItem
	watchers map[int64]chan *domain.ShopperRef
	nextID   int64
}

func NewStore() *Store {
	return &Store{
		watchers: make(map[int64]chan *domain.ShopperRef),
	}
}

type Action interface {
	apply(s *Store)
}

// SetShopper signs a shopper in, or out when Shopper is nil.
type SetShopper struct {
	Shopper *domain.ShopperRef
}

type AddItem struct {
	Item domain.BasketItem
}

type RemoveItem struct {
	ItemID int64
}

// EmptyBasket clears all basket lines, leaving the shopper signed in.
type EmptyBasket struct{}

func (a SetShopper) apply(s *Store) {
	if a.Shopper == nil {
		s.shopper = nil
		return
	}
	copied := *a.Shopper
	s.shopper = &copied
}

func (a AddItem) apply(s *Store) {
	for i := range s.items {
		if s.items[i].ID == a.Item.ID {
			s.items[i].Quantity += a.Item.Quantity
			return
		}
	}
	s.items = append(s.items, a.Item)
}

func (a RemoveItem) apply(s *Store) {
	for i := range s.items {
		if s.items[i].ID == a.ItemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (a EmptyBasket) apply(s *Store) {
	s.items = nil
}

func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	action.apply(s)
	shopper := s.shopper
	_, identityChanged := action.(SetShopper)
	s.mu.Unlock()

	if identityChanged {
		if shopper != nil {
			copied := *shopper
			shopper = &copied
		}
		s.notifyWatchers(shopper)
	}
}

// Shopper returns a copy of the signed-in shopper, or nil.
func (s *Store) Shopper() *domain.ShopperRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shopper == nil {
		return nil
	}
	copied := *s.shopper
	return &copied
}

// Snapshot returns a copy of the basket lines; mutating the result never
// affects the container.
func (s *Store) Snapshot() []domain.BasketItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BasketItem(nil), s.items...)
}

// Total computes the basket total in minor currency units.
func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.BasketTotal(s.items)
}

// WatchShopper reports shopper identity changes. The channel coalesces to
// the most recent identity for slow consumers; the returned stop function
// releases the watcher and closes the channel.
func (s *Store) WatchShopper() (<-chan *domain.ShopperRef, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan *domain.ShopperRef, 1)
	s.watchers[id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(w)
			}
		})
	}
	return ch, stop
}

func (s *Store) notifyWatchers(shopper *domain.ShopperRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.watchers {
		select {
		case ch <- shopper:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- shopper:
			default:
			}
		}
	}
}
