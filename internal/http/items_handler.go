package http

import (
	"context"
	"net/http"
	"time"

	"cafecart/internal/catalog"
	"cafecart/internal/domain"
)

// ItemsHandler serves the storefront menu straight from the catalog.
type ItemsHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
}

func NewItemsHandler(cat catalog.Catalog, timeout time.Duration) *ItemsHandler {
	return &ItemsHandler{
		catalog: cat,
		timeout: timeout,
	}
}

func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.ListItems(ctx)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if items == nil {
		items = []*domain.Item{}
	}

	respondJSON(w, http.StatusOK, items)
}
