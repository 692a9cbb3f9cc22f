package catalog

import (
	"context"
	"errors"

	"cafecart/internal/domain"
)

var (
	ErrItemNotFound = errors.New("item not found in catalog")
	ErrUnavailable  = errors.New("catalog unavailable")
)

// Catalog resolves item ids to their current attributes. The cart core only
// reads from it; item master data is owned elsewhere.
type Catalog interface {
	Lookup(ctx context.Context, itemID int64) (*domain.Item, error)
	ListItems(ctx context.Context) ([]*domain.Item, error)
}
