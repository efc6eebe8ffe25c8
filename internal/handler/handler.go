// Package handler exposes the order-item engine over JSON HTTP. The engine
// mandates no wire format; this is one thin transport over it.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/storecraft/order-engine/internal/domain/order"
)

// Handler holds the engine and implements the item mutation endpoints.
type Handler struct {
	engine *order.Engine
}

// New creates a Handler for the given engine.
func New(engine *order.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts all item routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/{order_id}/items", h.addItem)
	mux.HandleFunc("PUT /orders/{order_id}/items/{item_id}", h.updateItem)
	mux.HandleFunc("DELETE /orders/{order_id}/items/{item_id}", h.deleteItem)
	mux.HandleFunc("POST /orders/{order_id}/items/{item_id}/recalculate", h.recalculateItem)
	mux.HandleFunc("POST /orders/{order_id}/recalculate", h.recalculateAll)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("Encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
