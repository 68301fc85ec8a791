package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	Service *Service
}

// Menu handles GET /api/v1/menu (available items only).
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListAvailable(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// MenuItemDetail handles GET /api/v1/menu/{id}.
func (h *Handler) MenuItemDetail(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, categories)
}

// AdminList handles GET /api/v1/admin/menu, including unavailable items.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// AdminUpsert handles POST /api/v1/admin/menu and PUT /api/v1/admin/menu/{id}.
func (h *Handler) AdminUpsert(w http.ResponseWriter, r *http.Request) {
	var item MenuItem
	if err := common.DecodeJSON(r, &item); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		item.ID = id
	}
	saved, err := h.Service.Upsert(r.Context(), item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

// AdminRemove handles DELETE /api/v1/admin/menu/{id}.
func (h *Handler) AdminRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"deleted": true})
}

// AdminSeed handles POST /api/v1/admin/seed.
func (h *Handler) AdminSeed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.Service.Seed(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"seeded": seeded})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "menu item not found", nil)
	case errors.Is(err, ErrInvalidItem):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog error", nil)
	}
}
