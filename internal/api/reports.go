package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/inventory"
)

// ReportsHandler serves the aggregate views.
type ReportsHandler struct {
	Reports *inventory.Reports
	Logger  *zap.Logger
}

// Monthly handles GET /api/reports/monthly.
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Reports.MonthlyTotals(r.Context())
	if err != nil {
		serviceError(w, r, h.Logger, "failed to compute monthly totals", err)
		return
	}
	jsonResponse(w, http.StatusOK, totals)
}

// Top handles GET /api/reports/top?limit=N.
func (h *ReportsHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		jsonError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	top, err := h.Reports.TopSellers(r.Context(), limit)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to compute top sellers", err)
		return
	}
	jsonResponse(w, http.StatusOK, top)
}

// LowStock handles GET /api/reports/low-stock?threshold=N.
func (h *ReportsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, ok := queryInt(r, "threshold", -1)
	if !ok || (threshold < 0 && r.URL.Query().Has("threshold")) {
		jsonError(w, http.StatusBadRequest, "invalid threshold")
		return
	}

	items, err := h.Reports.LowStock(r.Context(), threshold)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to list low stock", err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Dashboard handles GET /api/dashboard.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		serviceError(w, r, h.Logger, "failed to build dashboard", err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}
