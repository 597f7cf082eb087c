package orders

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveSnapshot(t *testing.T, sub *Subscription) []domain.Order {
	t.Helper()
	select {
	case snapshot := <-sub.Updates():
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed emission")
		return nil
	}
}

func TestServiceSubscribe_InitialSnapshot(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))

	sub, err := svc.Subscribe(ctx, "shopper-1")
	require.NoError(t, err)
	defer sub.Cancel()

	snapshot := receiveSnapshot(t, sub)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "pi_1", snapshot[0].ID)
}

func TestServiceSubscribe_ReEmitsFullOrderingOnChange(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "shopper-1")
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Empty(t, receiveSnapshot(t, sub))

	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))
	snapshot := receiveSnapshot(t, sub)
	require.Len(t, snapshot, 1)

	require.NoError(t, svc.Put(ctx, sampleOrder("pi_2", "shopper-1")))
	snapshot = receiveSnapshot(t, sub)
	require.Len(t, snapshot, 2, "every change re-emits the full current ordering")
	assert.Equal(t, "pi_2", snapshot[0].ID, "newest first")
	assert.Equal(t, "pi_1", snapshot[1].ID)
}

func TestServiceSubscribe_OtherShopperChangesAreInvisible(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "shopper-1")
	require.NoError(t, err)
	defer sub.Cancel()
	receiveSnapshot(t, sub)

	require.NoError(t, svc.Put(ctx, sampleOrder("pi_other", "shopper-2")))

	select {
	case snapshot := <-sub.Updates():
		t.Fatalf("unexpected emission for another shopper's order: %v", snapshot)
	case <-time.After(100 * time.Millisecond):
	}
}

// stallRepo holds Subscribe's initial history read open after it has
// computed its result, so a write can be interleaved into the setup window.
type stallRepo struct {
	Repository
	entered chan struct{}
	release chan struct{}
	stalled atomic.Bool
}

func (r *stallRepo) ListByShopper(ctx context.Context, shopperID string) ([]domain.Order, error) {
	listed, err := r.Repository.ListByShopper(ctx, shopperID)
	if r.stalled.CompareAndSwap(false, true) {
		close(r.entered)
		<-r.release
	}
	return listed, err
}

func TestServiceSubscribe_OrderCommittedDuringSetupIsDelivered(t *testing.T) {
	repo := &stallRepo{
		Repository: NewMemoryStore(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	type subscribed struct {
		sub *Subscription
		err error
	}
	done := make(chan subscribed, 1)
	go func() {
		sub, err := svc.Subscribe(ctx, "shopper-1")
		done <- subscribed{sub, err}
	}()

	// The subscriber has read an empty history but not emitted it yet;
	// commit an order into that window.
	<-repo.entered
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))
	close(repo.release)

	res := <-done
	require.NoError(t, res.err)
	defer res.sub.Cancel()

	snapshot := receiveSnapshot(t, res.sub)
	require.Len(t, snapshot, 1, "an order committed during subscription setup must not be lost")
	assert.Equal(t, "pi_1", snapshot[0].ID)
}

func TestServiceSubscribe_CancelClosesUpdates(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "shopper-1")
	require.NoError(t, err)
	receiveSnapshot(t, sub)

	sub.Cancel()
	sub.Cancel() // safe to call twice

	_, open := <-sub.Updates()
	assert.False(t, open, "updates channel closes on cancel")

	// A write after cancel must not panic on a closed channel.
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))
}

func TestServiceSubscribe_SlowConsumerGetsLatest(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "shopper-1")
	require.NoError(t, err)
	defer sub.Cancel()

	// Never read between writes: emissions coalesce to the latest state.
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_2", "shopper-1")))
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_3", "shopper-1")))

	snapshot := receiveSnapshot(t, sub)
	require.Len(t, snapshot, 3)
	assert.Equal(t, "pi_3", snapshot[0].ID)
}

func TestServiceListByShopper_CacheReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewRedisCache(client)
	svc := NewService(NewMemoryStore(), cache, nil)
	ctx := context.Background()

	require.NoError(t, svc.Put(ctx, sampleOrder("pi_1", "shopper-1")))

	listed, err := svc.ListByShopper(ctx, "shopper-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// The async cache fill races the assertion; poll briefly.
	require.Eventually(t, func() bool {
		return mr.Exists(cacheKey("shopper-1"))
	}, 2*time.Second, 10*time.Millisecond, "list populates the cache")

	// Another put invalidates the cached list.
	require.NoError(t, svc.Put(ctx, sampleOrder("pi_2", "shopper-1")))
	assert.False(t, mr.Exists(cacheKey("shopper-1")))

	listed, err = svc.ListByShopper(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestServicePut_PublishesOrderEvent(t *testing.T) {
	published := make([]*domain.Order, 0)
	svc := NewService(NewMemoryStore(), nil, publisherFunc(func(_ context.Context, order *domain.Order) error {
		published = append(published, order)
		return nil
	}))

	require.NoError(t, svc.Put(context.Background(), sampleOrder("pi_1", "shopper-1")))

	require.Len(t, published, 1)
	assert.Equal(t, "pi_1", published[0].ID)
}

type publisherFunc func(ctx context.Context, order *domain.Order) error

func (f publisherFunc) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return f(ctx, order)
}
