package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
	"github.com/xela07ax/ai-governance-portal/internal/infra/auth"
	"github.com/xela07ax/ai-governance-portal/internal/oracle"
)

// UsageService Описываем, что нам нужно от сервиса
type UsageService interface {
	Submit(ctx context.Context, sub domain.Submission) (*domain.UsageEntry, error)
	Amend(ctx context.Context, id string, patch domain.EntryPatch) (*domain.UsageEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.UsageEntry, error)
	ListEntries(ctx context.Context) ([]*domain.UsageEntry, error)
	ListEntriesByUser(ctx context.Context, username string) ([]*domain.UsageEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

type UsageHandler struct {
	service UsageService
	logger  *zap.Logger
}

func NewUsageHandler(s UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{service: s, logger: logger}
}

func (h *UsageHandler) List(w http.ResponseWriter, r *http.Request) {
	// Полный список — только для админов; остальным свой срез по /user/{username}
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	entries, err := h.service.ListEntries(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch entries", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *UsageHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	entries, err := h.service.ListEntriesByUser(r.Context(), username)
	if err != nil {
		http.Error(w, "Failed to fetch entries", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *UsageHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *UsageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *UsageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch domain.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	// Подотчетность: действующее лицо берем из токена, не из тела запроса
	patch.Actor = auth.UsernameFromContext(r.Context())

	entry, err := h.service.Amend(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *UsageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError разделяет типы ошибок движка (400, 404, 502, 500)
func (h *UsageHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "entry not found", http.StatusNotFound)
	case errors.Is(err, oracle.ErrUnavailable):
		// Оракул лег — заявку не принимаем, клиент может повторить позже
		h.logger.Error("risk oracle unavailable", zap.Error(err))
		http.Error(w, "risk assessment service unavailable", http.StatusBadGateway)
	default:
		h.logger.Error("usage request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
