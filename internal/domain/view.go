package domain

import "time"

// LineView is a line item joined with its current catalog attributes.
type LineView struct {
	Item     Item    `json:"item"`
	Qty      int32   `json:"qty"`
	Subtotal float64 `json:"subtotal"`
}

// OrderView is an order populated against the catalog. Total and ItemCount
// are derived at read time from current catalog prices and are never
// persisted; a history entry's displayed total can therefore drift if
// catalog prices change after checkout.
type OrderView struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Lines     []LineView `json:"items"`
	IsPaid    bool       `json:"is_paid"`
	Total     float64    `json:"total"`
	ItemCount int32      `json:"item_count"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    time.Time  `json:"paid_at,omitempty"`
}

// Total sums qty * current price over the given lines.
func Total(lines []LineView) float64 {
	var total float64
	for _, l := range lines {
		total += float64(l.Qty) * l.Item.Price
	}
	return total
}

// ItemCount sums the quantities over the given lines.
func ItemCount(lines []LineView) int32 {
	var count int32
	for _, l := range lines {
		count += l.Qty
	}
	return count
}
