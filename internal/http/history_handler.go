package http

import (
	"context"
	"net/http"
	"time"

	"cafecart/internal/domain"
)

type HistoryAPI interface {
	History(ctx context.Context, userID string) ([]*domain.OrderView, error)
}

type HistoryHandler struct {
	history HistoryAPI
	timeout time.Duration
}

func NewHistoryHandler(history HistoryAPI, timeout time.Duration) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		timeout: timeout,
	}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	views, err := h.history.History(ctx, userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if views == nil {
		views = []*domain.OrderView{}
	}

	respondJSON(w, http.StatusOK, views)
}
