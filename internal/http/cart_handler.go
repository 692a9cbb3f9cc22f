package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cafecart/internal/domain"
)

// maxLineQty is the per-line quantity ceiling enforced at the edge.
const maxLineQty = 99

// CartAPI is what the handlers need from the cart manager.
// Consumers define this interface, not the service implementation.
type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.OrderView, error)
	AddItem(ctx context.Context, userID string, itemID int64, qty int32) (*domain.OrderView, error)
	SetItemQuantity(ctx context.Context, userID string, itemID int64, qty int32) (*domain.OrderView, error)
	Checkout(ctx context.Context, userID string) (*domain.OrderView, error)
}

type CartHandler struct {
	cart    CartAPI
	timeout time.Duration
}

func NewCartHandler(cart CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type addItemRequestDTO struct {
	Qty int32 `json:"qty"`
}

type setQuantityRequestDTO struct {
	ItemID int64 `json:"item_id"`
	Qty    int32 `json:"qty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemIDStr := chi.URLParam(r, "itemID")
	itemID, err := strconv.ParseInt(itemIDStr, 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id must be a positive integer")
		return
	}

	// Body is optional; an absent or empty body means quantity 1.
	req := addItemRequestDTO{Qty: 1}
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Qty <= 0 || req.Qty > maxLineQty {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty must be between 1 and 99")
		return
	}

	view, err := h.cart.AddItem(ctx, userID, itemID, req.Qty)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req setQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a positive integer")
		return
	}
	// Zero and negative quantities are legal here: they remove the line.
	if req.Qty > maxLineQty {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty must not exceed 99")
		return
	}

	view, err := h.cart.SetItemQuantity(ctx, userID, req.ItemID, req.Qty)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.cart.Checkout(ctx, userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
