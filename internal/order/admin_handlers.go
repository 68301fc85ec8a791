package order

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foodpick-ng/backend/internal/common"
)

// AdminHandler exposes the fulfilment side of the order lifecycle.
type AdminHandler struct {
	Service *Service
}

type statusRequest struct {
	Status Status `json:"status"`
}

// List handles GET /api/v1/admin/orders.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
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

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", err.Error())
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// MarkAllDelivered handles POST /api/v1/admin/orders/mark-all-delivered.
func (h *AdminHandler) MarkAllDelivered(w http.ResponseWriter, r *http.Request) {
	changed, err := h.Service.MarkAllDelivered(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"updated": changed})
}

// ExportCSV handles GET /api/v1/admin/orders/export.
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("foodpick-orders-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.Service.ExportCSV(r.Context(), w); err != nil {
		// headers are gone at this point; the truncated body is the signal
		return
	}
}
