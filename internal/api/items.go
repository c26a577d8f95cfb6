package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/inventory"
	"github.com/erazemk/blagajna/internal/model"
)

// ItemsHandler handles item CRUD and sell endpoints.
type ItemsHandler struct {
	Catalog *inventory.Catalog
	Ledger  *inventory.Ledger
	Logger  *zap.Logger
}

type createItemResponse struct {
	*model.Item
	ImageWarning string `json:"image_warning,omitempty"`
}

type sellRequest struct {
	Quantity int `json:"quantity"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		serviceError(w, r, h.Logger, "failed to list items", err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Catalog.Create(r.Context(), req)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to create item", err)
		return
	}

	resp := createItemResponse{Item: res.Item}
	if res.ImageErr != nil {
		resp.ImageWarning = "item created without identifier image"
	}
	jsonResponse(w, http.StatusCreated, resp)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to get item", err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req model.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Catalog.Update(r.Context(), id, req)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to update item", err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		serviceError(w, r, h.Logger, "failed to delete item", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sell handles POST /api/items/{id}/sell.
func (h *ItemsHandler) Sell(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := h.Ledger.Sell(r.Context(), id, req.Quantity)
	if err != nil {
		serviceError(w, r, h.Logger, "failed to record sale", err)
		return
	}
	jsonResponse(w, http.StatusCreated, sale)
}
