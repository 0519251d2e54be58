package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaiso/Stepwall/internal/domain"
)

// GetSlot возвращает слот расписания.
// GET /api/v1/slots/{id}
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	if h.schedule == nil {
		Unavailable(w, "schedule database is not configured")
		return
	}

	slot, err := h.schedule.GetSlot(r.Context(), chi.URLParam(r, "id"))
	if HandleRepoError(w, h.logger, err, "slot not found") {
		return
	}

	Success(w, slot)
}

// SaveSlot создаёт или обновляет слот вместе с докладом.
// PUT /api/v1/slots
func (h *Handler) SaveSlot(w http.ResponseWriter, r *http.Request) {
	if h.schedule == nil {
		Unavailable(w, "schedule database is not configured")
		return
	}

	var slot domain.ScheduleSlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if HandleRepoError(w, h.logger, h.schedule.SaveSlot(r.Context(), slot), "") {
		return
	}

	Success(w, slot)
}

// UpdateFavorites обновляет счётчик избранного.
// PUT /api/v1/slots/{id}/favorites
func (h *Handler) UpdateFavorites(w http.ResponseWriter, r *http.Request) {
	if h.schedule == nil {
		Unavailable(w, "schedule database is not configured")
		return
	}

	var req FavoritesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Favorites < 0 {
		BadRequest(w, "favorites must not be negative")
		return
	}

	err := h.schedule.UpdateFavorites(r.Context(), chi.URLParam(r, "id"), req.Favorites)
	if HandleRepoError(w, h.logger, err, "slot not found") {
		return
	}

	NoContent(w)
}
