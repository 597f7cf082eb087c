package basket

import (
	"testing"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_AddItem(t *testing.T) {
	store := NewStore()

	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Title: "A", Price: 500, Quantity: 2}})
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 2, Title: "B", Price: 199, Quantity: 1}})

	items := store.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1199), store.Total())
}

func TestDispatch_AddItem_MergesQuantity(t *testing.T) {
	store := NewStore()

	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Title: "A", Price: 500, Quantity: 2}})
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Title: "A", Price: 500, Quantity: 3}})

	items := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, int32(5), items[0].Quantity)
}

func TestDispatch_RemoveItem(t *testing.T) {
	store := NewStore()
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Title: "A", Price: 500, Quantity: 2}})
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 2, Title: "B", Price: 199, Quantity: 1}})

	store.Dispatch(RemoveItem{ItemID: 1})

	items := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestDispatch_EmptyBasket_KeepsShopper(t *testing.T) {
	store := NewStore()
	store.Dispatch(SetShopper{Shopper: &domain.ShopperRef{ID: "shopper-1", Email: "s@example.com"}})
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Price: 500, Quantity: 2}})

	store.Dispatch(EmptyBasket{})

	assert.Empty(t, store.Snapshot())
	assert.Zero(t, store.Total())
	require.NotNil(t, store.Shopper())
	assert.Equal(t, "shopper-1", store.Shopper().ID)
}

func TestSnapshot_IsDetached(t *testing.T) {
	store := NewStore()
	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Price: 500, Quantity: 2}})

	snapshot := store.Snapshot()
	snapshot[0].Quantity = 99

	assert.Equal(t, int32(2), store.Snapshot()[0].Quantity)
}

func TestWatchShopper_NotifiesOnIdentityChange(t *testing.T) {
	store := NewStore()
	ch, stop := store.WatchShopper()
	defer stop()

	store.Dispatch(SetShopper{Shopper: &domain.ShopperRef{ID: "shopper-1"}})

	select {
	case shopper := <-ch:
		require.NotNil(t, shopper)
		assert.Equal(t, "shopper-1", shopper.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for identity change")
	}

	store.Dispatch(SetShopper{Shopper: nil})

	select {
	case shopper := <-ch:
		assert.Nil(t, shopper, "sign-out is delivered as nil")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sign-out")
	}
}

func TestWatchShopper_BasketChangesDoNotNotify(t *testing.T) {
	store := NewStore()
	ch, stop := store.WatchShopper()
	defer stop()

	store.Dispatch(AddItem{Item: domain.BasketItem{ID: 1, Price: 500, Quantity: 2}})
	store.Dispatch(EmptyBasket{})

	select {
	case <-ch:
		t.Fatal("basket mutation must not look like an identity change")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchShopper_CoalescesToLatest(t *testing.T) {
	store := NewStore()
	ch, stop := store.WatchShopper()
	defer stop()

	store.Dispatch(SetShopper{Shopper: &domain.ShopperRef{ID: "shopper-1"}})
	store.Dispatch(SetShopper{Shopper: &domain.ShopperRef{ID: "shopper-2"}})

	shopper := <-ch
	require.NotNil(t, shopper)
	assert.Equal(t, "shopper-2", shopper.ID)
}

func TestWatchShopper_StopClosesChannel(t *testing.T) {
	store := NewStore()
	ch, stop := store.WatchShopper()

	stop()
	stop() // safe to call twice

	_, open := <-ch
	assert.False(t, open)

	// Later dispatches must not panic on the closed channel.
	store.Dispatch(SetShopper{Shopper: &domain.ShopperRef{ID: "shopper-1"}})
}
