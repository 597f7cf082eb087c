package orders

import (
	"sync"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
)

// Subscription is a live handle on one shopper's order history. The channel
// carries the full current ordering, newest first, re-emitted on every
// underlying change; consumers never need to apply diffs. Slow consumers are
// coalesced to the latest snapshot rather than queued.
type Subscription struct {
	updates chan []domain.Order
	cancel  func()
	once    sync.Once
}

func (s *Subscription) Updates() <-chan []domain.Order {
	return s.updates
}

// Cancel releases the listener. The updates channel is closed; Cancel is
// safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type hub struct {
	mu     sync.Mutex
	subs   map[string]map[int64]*Subscription // shopper id -> subscriber set
	nextID int64
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int64]*Subscription)}
}

func (h *hub) subscribe(shopperID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	sub := &Subscription{updates: make(chan []domain.Order, 1)}
	sub.cancel = func() { h.unsubscribe(shopperID, id) }

	if h.subs[shopperID] == nil {
		h.subs[shopperID] = make(map[int64]*Subscription)
	}
	h.subs[shopperID][id] = sub
	return sub
}

func (h *hub) unsubscribe(shopperID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[shopperID][id]
	if !ok {
		return
	}
	delete(h.subs[shopperID], id)
	if len(h.subs[shopperID]) == 0 {
		delete(h.subs, shopperID)
	}
	close(sub.updates)
}

// publish delivers a snapshot to every listener for the shopper. The hub
// lock serializes publishers, so the drain-then-send below cannot race with
// another sender; only a consumer can empty the channel in between.
func (h *hub) publish(shopperID string, snapshot []domain.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs[shopperID] {
		select {
		case sub.updates <- snapshot:
		default:
			select {
			case <-sub.updates:
			default:
			}
			select {
			case sub.updates <- snapshot:
			default:
			}
		}
	}
}
