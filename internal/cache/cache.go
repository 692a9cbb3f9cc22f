package cache

import (
	"context"
	"errors"

	"cafecart/internal/domain"
)

// CartCache holds the unpopulated active cart per user. Only item refs and
// quantities are cached; catalog attributes and totals are joined on every
// read so they always reflect current prices.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Order, error)
	Set(ctx context.Context, userID string, order *domain.Order) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
