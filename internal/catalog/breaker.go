package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"cafecart/internal/domain"
)

// BreakerCatalog wraps another Catalog with a circuit breaker so a failing
// catalog store degrades to fast ErrUnavailable responses instead of piling
// up slow calls. ErrItemNotFound is a normal answer and does not trip it.
type BreakerCatalog struct {
	inner  Catalog
	lookup *gobreaker.CircuitBreaker[*domain.Item]
	list   *gobreaker.CircuitBreaker[[]*domain.Item]
}

func NewBreakerCatalog(inner Catalog) *BreakerCatalog {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrItemNotFound)
			},
		}
	}

	return &BreakerCatalog{
		inner:  inner,
		lookup: gobreaker.NewCircuitBreaker[*domain.Item](settings("catalog-lookup")),
		list:   gobreaker.NewCircuitBreaker[[]*domain.Item](settings("catalog-list")),
	}
}

func (b *BreakerCatalog) Lookup(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := b.lookup.Execute(func() (*domain.Item, error) {
		return b.inner.Lookup(ctx, itemID)
	})
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	return item, nil
}

func (b *BreakerCatalog) ListItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := b.list.Execute(func() ([]*domain.Item, error) {
		return b.inner.ListItems(ctx)
	})
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	return items, nil
}

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return err
}
