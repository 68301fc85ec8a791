package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/foodpick-ng/backend/internal/common"
)

// Handler exposes the admin analytics endpoints.
type Handler struct {
	Service      *Service
	DefaultRange int
}

func (h *Handler) defaultRange() int {
	if h.DefaultRange > 0 {
		return h.DefaultRange
	}
	return 30
}

// Revenue handles GET /api/v1/admin/analytics/revenue?from=&to= with
// YYYY-MM-DD bounds, defaulting to the trailing default range.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	now := h.Service.now()
	to := now
	from := now.AddDate(0, 0, -h.defaultRange())
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid from date", nil)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid to date", nil)
			return
		}
		to = parsed
	}
	revenue, err := h.Service.RevenueInRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "analytics error", nil)
		return
	}
	common.Data(w, http.StatusOK, revenue)
}

// TopCategories handles GET /api/v1/admin/analytics/top-categories?limit=.
func (h *Handler) TopCategories(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ranks, err := h.Service.TopCategories(r.Context(), limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "analytics error", nil)
		return
	}
	if ranks == nil {
		ranks = []CategoryRank{}
	}
	common.Data(w, http.StatusOK, ranks)
}

// Daily handles GET /api/v1/admin/analytics/daily?days=.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	series, err := h.Service.DailySeries(r.Context(), days)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "analytics error", nil)
		return
	}
	common.Data(w, http.StatusOK, series)
}
