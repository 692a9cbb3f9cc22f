package service

import (
	"context"

	"cafecart/internal/catalog"
	"cafecart/internal/domain"
	"cafecart/internal/repository"
)

// HistoryService is the read-only surface over finalized orders. It exposes
// no mutation path; the current active cart is never part of its results.
type HistoryService struct {
	repo    repository.CartRepository
	catalog catalog.Catalog
}

func NewHistoryService(repo repository.CartRepository, cat catalog.Catalog) *HistoryService {
	return &HistoryService{repo: repo, catalog: cat}
}

// History lists the user's paid orders, most recent checkout first, each
// populated with current catalog attributes for display.
func (h *HistoryService) History(ctx context.Context, userID string) ([]*domain.OrderView, error) {
	orders, err := h.repo.PaidOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.OrderView, 0, len(orders))
	for i := range orders {
		// Same population logic as the cart manager, so history and cart
		// views price lines identically.
		view, err := populateOrder(ctx, h.catalog, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}
