package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"golang.org/x/sync/singleflight"
)

// EventPublisher announces completed orders to the rest of the system.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// Service is the order store facade: durable writes through the repository,
// cached reads, live per-shopper subscriptions, and best-effort order
// events. Cache and publisher may be nil when the deployment runs without
// Redis or Kafka.
type Service struct {
	repo      Repository
	cache     OrderCache
	publisher EventPublisher
	hub       *hub
	sfg       singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache OrderCache, publisher EventPublisher) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		hub:       newHub(),
	}
}

// Put upserts the order at its settlement id, then fans the change out:
// cache invalidation, a fresh snapshot to live subscribers, and an order
// event. Only the durable write can fail the call; everything downstream is
// logged and dropped so a persisted order is never reported as a failure.
func (s *Service) Put(ctx context.Context, order *domain.Order) error {
	if err := s.repo.Put(ctx, order); err != nil {
		return fmt.Errorf("put order: %w", err)
	}

	s.invalidateCache(order.Shopper.ID)
	s.notifySubscribers(ctx, order.Shopper.ID)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			log.Printf("failed to publish order event for %v: %v", order.ID, err)
		}
	}

	return nil
}

// ListByShopper returns the shopper's orders newest first, via the cache
// when possible.
func (s *Service) ListByShopper(ctx context.Context, shopperID string) ([]domain.Order, error) {
	if s.cache == nil {
		return s.repo.ListByShopper(ctx, shopperID)
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(shopperID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, shopperID)
		if err == nil {
			return cached, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		listed, errList := s.repo.ListByShopper(ctx, shopperID)
		if errList != nil {
			return nil, errList
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, shopperID, listed); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return listed, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]domain.Order), nil
}

// Subscribe opens a live feed on the shopper's orders. The current snapshot
// is delivered first; every later change re-emits the full ordering. The
// listener is registered before the snapshot read, so a write that lands
// during setup reaches the subscriber through the live channel instead of
// falling between the two steps. The caller must Cancel the subscription to
// release the listener.
func (s *Service) Subscribe(ctx context.Context, shopperID string) (*Subscription, error) {
	sub := s.hub.subscribe(shopperID)

	snapshot, err := s.repo.ListByShopper(ctx, shopperID)
	if err != nil {
		sub.Cancel()
		return nil, fmt.Errorf("subscribe orders: %w", err)
	}

	select {
	case sub.updates <- snapshot:
	default:
		// a concurrent write already queued a fresher snapshot
	}
	return sub, nil
}

func (s *Service) invalidateCache(shopperID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, shopperID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func (s *Service) notifySubscribers(ctx context.Context, shopperID string) {
	snapshot, err := s.repo.ListByShopper(ctx, shopperID)
	if err != nil {
		log.Printf("failed to refresh feed for shopper %v: %v", shopperID, err)
		return
	}
	s.hub.publish(shopperID, snapshot)
}
