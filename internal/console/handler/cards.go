package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

// CardService Описываем, что нам нужно от сервиса
type CardService interface {
	GetModelCard(ctx context.Context, entryID string) (*domain.ModelCard, error)
	ListModelCards(ctx context.Context) ([]*domain.ModelCard, error)
}

type CardHandler struct {
	service CardService
}

func NewCardHandler(s CardService) *CardHandler {
	return &CardHandler{service: s}
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListModelCards(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch model cards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) GetByEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	card, err := h.service.GetModelCard(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "model card not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch model card", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, card)
}
