package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
)

// MemoryStore implements Repository with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order // settlement id -> order

	lastAssigned time.Time
}

// NewMemoryStore creates a new in-memory order store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*domain.Order),
	}
}

// Put upserts the order at its settlement id. The store assigns created_at
// on first write and keeps it on re-put; timestamps are strictly increasing
// so the per-shopper ordering is total even within one clock tick.
func (s *MemoryStore) Put(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *order
	stored.Items = append([]domain.LineItem(nil), order.Items...)

	if existing, ok := s.orders[order.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = s.nextTimestamp()
	}

	s.orders[order.ID] = &stored
	return nil
}

func (s *MemoryStore) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastAssigned) {
		now = s.lastAssigned.Add(time.Nanosecond)
	}
	s.lastAssigned = now
	return now
}

// ListByShopper returns the shopper's orders newest first.
func (s *MemoryStore) ListByShopper(_ context.Context, shopperID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range s.orders {
		if order.Shopper.ID != shopperID {
			continue
		}
		copied := *order
		copied.Items = append([]domain.LineItem(nil), order.Items...)
		result = append(result, copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
