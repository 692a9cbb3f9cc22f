package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"cafecart/internal/cache"
	"cafecart/internal/catalog"
	"cafecart/internal/domain"
	"cafecart/internal/events"
	"cafecart/internal/repository"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// CartService is the only component that mutates orders. It owns the
// cart state machine: lazily created active cart, line mutations while
// unpaid, one-way transition to paid on checkout.
type CartService struct {
	repo    repository.CartRepository
	catalog catalog.Catalog
	cache   cache.CartCache
	events  events.Publisher // optional
	sfg     singleflight.Group
}

func NewCartService(repo repository.CartRepository, cat catalog.Catalog, cartCache cache.CartCache, publisher events.Publisher) *CartService {
	return &CartService{
		repo:    repo,
		catalog: cat,
		cache:   cartCache,
		events:  publisher,
	}
}

// GetCart returns the user's active cart, creating an empty one if none
// exists, populated against the current catalog.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.OrderView, error) {
	// Singleflight collapses concurrent cache misses for the same user
	// into one store round trip.
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		order, err := s.cache.Get(ctx, userID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("user_id", userID).Msg("cart cache get failed")
		}

		order, err = s.repo.EnsureActiveCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, userID, order); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("cart cache set failed")
			}
		}()

		return order, nil
	})
	if err != nil {
		return nil, err
	}

	return s.populate(ctx, v.(*domain.Order))
}

// AddItem validates itemID against the catalog, then merges qty into the
// active cart: an existing line is incremented, otherwise a new line is
// appended. Repeated calls are additive, not idempotent.
func (s *CartService) AddItem(ctx context.Context, userID string, itemID int64, qty int32) (*domain.OrderView, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.Lookup(ctx, itemID); err != nil {
		return nil, err
	}

	if err := s.repo.AddLine(ctx, userID, itemID, qty); err != nil {
		return nil, err
	}
	s.invalidate(userID)

	return s.activeView(ctx, userID)
}

// SetItemQuantity overwrites the quantity of a line that is already in the
// cart; it never creates one. qty <= 0 removes the line, leaving the (possibly
// now empty) cart in place.
func (s *CartService) SetItemQuantity(ctx context.Context, userID string, itemID int64, qty int32) (*domain.OrderView, error) {
	if err := s.repo.SetLineQty(ctx, userID, itemID, qty); err != nil {
		return nil, err
	}
	s.invalidate(userID)

	return s.activeView(ctx, userID)
}

// Checkout flips the active cart to paid and returns it. The next GetCart
// for this user starts a fresh, empty cart.
func (s *CartService) Checkout(ctx context.Context, userID string) (*domain.OrderView, error) {
	order, err := s.repo.Checkout(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)

	view, err := s.populate(ctx, order)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishCheckout(ctx, events.NewCheckoutCompleted(view)); err != nil {
			// Checkout already committed; the event is best-effort.
			log.Error().Err(err).Str("order_id", view.ID).Msg("checkout event publish failed")
		}
	}

	return view, nil
}

func (s *CartService) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("cart cache invalidate failed")
	}
}

func (s *CartService) activeView(ctx context.Context, userID string) (*domain.OrderView, error) {
	order, err := s.repo.ActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			// A concurrent checkout finalized the cart we just touched;
			// show the fresh empty one.
			order, err = s.repo.EnsureActiveCart(ctx, userID)
		}
		if err != nil {
			return nil, err
		}
	}
	return s.populate(ctx, order)
}

func (s *CartService) populate(ctx context.Context, order *domain.Order) (*domain.OrderView, error) {
	return populateOrder(ctx, s.catalog, order)
}

// populateOrder joins an order with current catalog attributes and computes
// the derived totals. A line whose item has since vanished from the catalog
// is rendered with the bare item id and a zero price rather than dropped.
func populateOrder(ctx context.Context, cat catalog.Catalog, order *domain.Order) (*domain.OrderView, error) {
	view := &domain.OrderView{
		ID:        order.ID,
		UserID:    order.UserID,
		IsPaid:    order.IsPaid,
		CreatedAt: order.CreatedAt,
		PaidAt:    order.PaidAt,
		Lines:     make([]domain.LineView, 0, len(order.Items)),
	}

	for _, li := range order.Items {
		item, err := cat.Lookup(ctx, li.ItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrItemNotFound) {
				log.Warn().Int64("item_id", li.ItemID).Str("order_id", order.ID).Msg("line references item missing from catalog")
				item = &domain.Item{ID: li.ItemID}
			} else {
				return nil, err
			}
		}
		view.Lines = append(view.Lines, domain.LineView{
			Item:     *item,
			Qty:      li.Qty,
			Subtotal: float64(li.Qty) * item.Price,
		})
	}

	view.Total = domain.Total(view.Lines)
	view.ItemCount = domain.ItemCount(view.Lines)
	return view, nil
}
