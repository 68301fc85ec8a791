package address

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/common"
)

// Handler exposes address-book endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/addresses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if addresses == nil {
		addresses = []Address{}
	}
	common.Data(w, http.StatusOK, addresses)
}

// Upsert handles POST /api/v1/addresses and PUT /api/v1/addresses/{id}.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var a Address
	if err := common.DecodeJSON(r, &a); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		a.ID = id
	}
	saved, err := h.Service.Upsert(r.Context(), a)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

// Remove handles DELETE /api/v1/addresses/{id}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"deleted": true})
}

// Select handles PUT /api/v1/addresses/{id}/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "session id required", nil)
		return
	}
	a, err := h.Service.Select(r.Context(), sid, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, a)
}

// Selected handles GET /api/v1/addresses/selected.
func (h *Handler) Selected(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "session id required", nil)
		return
	}
	a, err := h.Service.Selected(r.Context(), sid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, a)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "address not found", nil)
	case errors.Is(err, ErrNoneSelected):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "no address selected", nil)
	case errors.Is(err, ErrInvalidAddress):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "address error", nil)
	}
}
