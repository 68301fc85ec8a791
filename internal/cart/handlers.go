package cart

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/common"
	"github.com/foodpick-ng/backend/internal/obs"
	"github.com/foodpick-ng/backend/internal/pricing"
)

// Handler exposes cart endpoints. All routes require a session id.
type Handler struct {
	Svc     *Service
	Catalog *catalog.Service
}

type addItemRequest struct {
	MenuItemID string   `json:"menuItemId"`
	Variant    string   `json:"variant"`
	AddOns     []string `json:"addOns"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		writeNoSession(w)
		return
	}
	snap, err := h.Svc.Get(r.Context(), sid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, snap)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		writeNoSession(w)
		return
	}
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	item, err := h.Catalog.FindByID(r.Context(), req.MenuItemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := h.Svc.Add(r.Context(), sid, item, req.Variant, req.AddOns)
	if err != nil {
		h.writeError(w, err)
		return
	}
	recordMutation("add")
	common.Data(w, http.StatusCreated, snap)
}

// SetQuantity handles PATCH /api/v1/cart/items/{identity}.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		writeNoSession(w)
		return
	}
	identity, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid identity", nil)
		return
	}
	var req setQuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	snap, err := h.Svc.SetQuantity(r.Context(), sid, identity, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	recordMutation("set_quantity")
	common.Data(w, http.StatusOK, snap)
}

// RemoveItem handles DELETE /api/v1/cart/items/{identity}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		writeNoSession(w)
		return
	}
	identity, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid identity", nil)
		return
	}
	snap, err := h.Svc.Remove(r.Context(), sid, identity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	recordMutation("remove")
	common.Data(w, http.StatusOK, snap)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		writeNoSession(w)
		return
	}
	if err := h.Svc.Clear(r.Context(), sid); err != nil {
		h.writeError(w, err)
		return
	}
	recordMutation("clear")
	common.Data(w, http.StatusOK, Snapshot{Lines: []Line{}})
}

func recordMutation(op string) {
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op).Inc()
	}
}

func writeNoSession(w http.ResponseWriter) {
	common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "session id required", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "menu item not found", nil)
	case errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart line not found", nil)
	case errors.Is(err, ErrItemUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodePrecondition, "menu item unavailable", nil)
	case errors.Is(err, pricing.ErrUnknownVariant),
		errors.Is(err, pricing.ErrUnknownAddOn),
		errors.Is(err, pricing.ErrDuplicateAddOn):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart error", nil)
	}
}
