package domain

import "time"

// BasketItem is a line in the shopper's live basket. Owned by the basket
// state container; the checkout flow only ever reads it.
type BasketItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"` // unit price in minor currency units
	Quantity int32  `json:"quantity"`
}

// LineItem is a basket line snapshotted into an order at purchase time.
// It is a copy, so later basket mutation cannot alter a placed order.
type LineItem struct {
	ID       int64  `bson:"id" json:"id"`
	Title    string `bson:"title" json:"title"`
	Price    int64  `bson:"price" json:"price"`
	Quantity int32  `bson:"quantity" json:"quantity"`
}

type ShopperRef struct {
	ID    string `bson:"id" json:"id"`
	Email string `bson:"email" json:"email"`
}

// Order is the durable record of a completed purchase. The ID is the
// processor-issued settlement identifier, which doubles as the idempotency
// key for persistence. CreatedAt is assigned by the store at write time.
type Order struct {
	ID        string     `bson:"_id" json:"id"`
	Shopper   ShopperRef `bson:"shopper" json:"shopper"`
	Items     []LineItem `bson:"items" json:"items"`
	Total     int64      `bson:"total" json:"total"` // minor currency units
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// BasketTotal computes the checkout total in minor currency units.
func BasketTotal(items []BasketItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// SnapshotItems copies basket lines into order lines.
func SnapshotItems(items []BasketItem) []LineItem {
	snapshot := make([]LineItem, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, LineItem{
			ID:       item.ID,
			Title:    item.Title,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	return snapshot
}
