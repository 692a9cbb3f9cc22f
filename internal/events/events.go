package events

import (
	"context"
	"time"

	"cafecart/internal/domain"
)

// CheckoutLine mirrors one order line at checkout time, priced as it was
// displayed to the buyer.
type CheckoutLine struct {
	ItemID   int64   `json:"item_id"`
	Name     string  `json:"name"`
	Qty      int32   `json:"qty"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

// CheckoutCompleted is published once per successful checkout.
type CheckoutCompleted struct {
	OrderID string         `json:"order_id"`
	UserID  string         `json:"user_id"`
	Lines   []CheckoutLine `json:"items"`
	Total   float64        `json:"total"`
	PaidAt  time.Time      `json:"paid_at"`
}

// Publisher emits checkout events. Publishing happens synchronously inside
// the checkout request and is best-effort: a broker failure never rolls the
// checkout back.
type Publisher interface {
	PublishCheckout(ctx context.Context, event CheckoutCompleted) error
}

// NewCheckoutCompleted builds the event payload from a populated order view.
func NewCheckoutCompleted(view *domain.OrderView) CheckoutCompleted {
	event := CheckoutCompleted{
		OrderID: view.ID,
		UserID:  view.UserID,
		Total:   view.Total,
		PaidAt:  view.PaidAt,
	}
	for _, l := range view.Lines {
		event.Lines = append(event.Lines, CheckoutLine{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Qty:      l.Qty,
			Price:    l.Item.Price,
			Subtotal: l.Subtotal,
		})
	}
	return event
}
