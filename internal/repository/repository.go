package repository

import (
	"context"
	"errors"

	"cafecart/internal/domain"
)

var (
	ErrCartNotFound = errors.New("active cart not found")
	ErrLineNotFound = errors.New("item not in cart")
	ErrEmptyCart    = errors.New("cart is empty, nothing to checkout")
)

// CartRepository defines the store operations the cart manager needs.
// Consumers define this interface, not the MongoDB implementation.
//
// Every mutation is a single atomic store-side operation, so two concurrent
// requests against the same user's cart can never lose an update: there is no
// read-modify-write window to race on.
type CartRepository interface {
	// ActiveCart returns the user's unpaid order, or ErrCartNotFound.
	ActiveCart(ctx context.Context, userID string) (*domain.Order, error)
	// EnsureActiveCart returns the user's unpaid order, creating an empty
	// one atomically if none exists.
	EnsureActiveCart(ctx context.Context, userID string) (*domain.Order, error)
	// AddLine increments the quantity of an existing line for itemID on the
	// active cart, or appends a new line. Creates the cart if needed.
	AddLine(ctx context.Context, userID string, itemID int64, qty int32) error
	// SetLineQty overwrites the quantity of an existing line, removing it
	// when qty <= 0. Returns ErrLineNotFound if the active cart has no line
	// for itemID. The cart document itself survives even when emptied.
	SetLineQty(ctx context.Context, userID string, itemID int64, qty int32) error
	// Checkout atomically flips the active cart to paid and returns it.
	// Returns ErrEmptyCart when there is no active cart with at least one
	// line; the store is left untouched in that case.
	Checkout(ctx context.Context, userID string) (*domain.Order, error)
	// PaidOrders lists the user's finalized orders, most recent checkout first.
	PaidOrders(ctx context.Context, userID string) ([]domain.Order, error)
}
