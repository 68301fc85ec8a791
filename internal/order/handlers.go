package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/common"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/pricing"
)

// Handler exposes customer-facing order endpoints.
type Handler struct {
	Service *Service
	// Placed is invoked after each successful placement, for metrics.
	Placed func(Order)
}

type placeRequest struct {
	CouponCode string `json:"couponCode"`
}

// Place handles POST /api/v1/orders.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "session id required", nil)
		return
	}
	var req placeRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
			return
		}
	}
	o, err := h.Service.Place(r.Context(), sid, req.CouponCode)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Placed != nil {
		h.Placed(o)
	}
	common.Data(w, http.StatusCreated, o)
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.Data(w, http.StatusOK, orders)
}

// Detail handles GET /api/v1/orders/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrNoAddress),
		errors.Is(err, ErrTransitionNotAllowed):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodePrecondition, err.Error(), nil)
	case errors.Is(err, ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
	case errors.Is(err, ErrInvalidStatus):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "coupon not found", nil)
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, pricing.ErrMinAmountNotMet):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodePrecondition, err.Error(), nil)
	case errors.Is(err, pricing.ErrUnknownZone):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "order error", nil)
	}
}
