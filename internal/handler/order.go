package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storecraft/order-engine/internal/domain/order"
)

type addItemRequest struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	CustomPrice decimal.Decimal `json:"custom_price"`
	CustomNote  string          `json:"custom_note"`
}

type updateItemRequest struct {
	Quantity    *int             `json:"quantity"`
	VariantID   *string          `json:"variant_id"`
	CustomPrice *decimal.Decimal `json:"custom_price"`
	CustomNote  *string          `json:"custom_note"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.engine.AddItem(r.Context(), r.PathValue("order_id"), order.AddItemRequest{
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		Quantity:    req.Quantity,
		CustomPrice: req.CustomPrice,
		CustomNote:  req.CustomNote,
	})
	h.respond(w, r, o, err)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.engine.UpdateItem(r.Context(), r.PathValue("order_id"), r.PathValue("item_id"), order.ItemPatch{
		Quantity:    req.Quantity,
		VariantID:   req.VariantID,
		CustomPrice: req.CustomPrice,
		CustomNote:  req.CustomNote,
	})
	h.respond(w, r, o, err)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	o, err := h.engine.DeleteItem(r.Context(), r.PathValue("order_id"), r.PathValue("item_id"))
	h.respond(w, r, o, err)
}

func (h *Handler) recalculateItem(w http.ResponseWriter, r *http.Request) {
	o, err := h.engine.RecalculateItem(r.Context(), r.PathValue("order_id"), r.PathValue("item_id"))
	h.respond(w, r, o, err)
}

func (h *Handler) recalculateAll(w http.ResponseWriter, r *http.Request) {
	o, err := h.engine.RecalculateAllItems(r.Context(), r.PathValue("order_id"))
	h.respond(w, r, o, err)
}

// respond maps engine failures onto status codes: malformed identifiers are
// caller errors with no side effects (400), missing orders and items are 404,
// anything else is a 500 that gets logged with its full chain.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, o *order.Order, err error) {
	if err == nil {
		writeJSON(w, r, http.StatusOK, o)
		return
	}

	var invalidErr *order.InvalidIdentifierError
	if errors.As(err, &invalidErr) {
		writeError(w, r, http.StatusBadRequest, invalidErr.Error())
		return
	}
	if errors.Is(err, order.ErrInvalidQuantity) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var nfErr *order.NotFoundError
	if errors.As(err, &nfErr) {
		writeError(w, r, http.StatusNotFound, nfErr.Error())
		return
	}

	zctx.From(r.Context()).Error("Item operation failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
