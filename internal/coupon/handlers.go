package coupon

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/common"
	"github.com/foodpick-ng/backend/internal/pricing"
)

// Handler exposes coupon endpoints.
type Handler struct {
	Service *Service
}

type checkRequest struct {
	Code     string        `json:"code"`
	Subtotal pricing.Money `json:"subtotal"`
}

// List handles GET /api/v1/coupons (active coupons only).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, coupons)
}

// Check handles POST /api/v1/coupons/check: a dry-run evaluation against a
// subtotal, no state mutated.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	applied, err := h.Service.Evaluate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, applied)
}

// AdminList handles GET /api/v1/admin/coupons, including inactive coupons.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, coupons)
}

// AdminUpsert handles POST /api/v1/admin/coupons and PUT /api/v1/admin/coupons/{id}.
func (h *Handler) AdminUpsert(w http.ResponseWriter, r *http.Request) {
	var c Coupon
	if err := common.DecodeJSON(r, &c); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		c.ID = id
	}
	saved, err := h.Service.Upsert(r.Context(), c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

// AdminRemove handles DELETE /api/v1/admin/coupons/{id}.
func (h *Handler) AdminRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "coupon not found", nil)
	case errors.Is(err, ErrInactive),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrUsageLimitReached),
		errors.Is(err, pricing.ErrMinAmountNotMet):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodePrecondition, err.Error(), nil)
	case errors.Is(err, ErrInvalidCoupon):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrDuplicateCode):
		common.JSONError(w, http.StatusConflict, common.CodeConflict, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "coupon error", nil)
	}
}
