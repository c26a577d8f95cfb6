package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/inventory"
)

// SalesHandler serves the sales history.
type SalesHandler struct {
	Ledger *inventory.Ledger
	Logger *zap.Logger
}

// List handles GET /api/sales.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Ledger.History(r.Context())
	if err != nil {
		serviceError(w, r, h.Logger, "failed to list sales", err)
		return
	}
	jsonResponse(w, http.StatusOK, sales)
}
