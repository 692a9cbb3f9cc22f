package domain

import "time"

// Item is a catalog entry. The catalog owns it; orders only keep a reference.
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Glyph    string  `json:"glyph"`
}

// LineItem is one (item, quantity) pair inside an order. At most one line
// per item id exists in a given order.
type LineItem struct {
	ItemID  int64     `bson:"item_id" json:"item_id"`
	Qty     int32     `bson:"qty" json:"qty"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// Order is the persisted cart/order document. While IsPaid is false it is the
// user's active cart; checkout flips the flag once and the order becomes a
// history entry.
type Order struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []LineItem `bson:"items" json:"items"`
	IsPaid    bool       `bson:"is_paid" json:"is_paid"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	PaidAt    time.Time  `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// Line returns the line item for the given item id, or nil.
func (o *Order) Line(itemID int64) *LineItem {
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
