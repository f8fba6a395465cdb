package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/domain/product"
)

// viewItem is the wire form of a working copy line for the browser.
type viewItem struct {
	ID              int64   `json:"id,omitempty"`
	ProductID       int64   `json:"product_id"`
	ProductName     string  `json:"product_name,omitempty"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount_percent"`
	Subtotal        float64 `json:"subtotal"`
}

// editView is the full working copy state returned after every edit
// operation, so the UI always renders server-computed totals.
type editView struct {
	SessionID      string              `json:"session_id"`
	OrderID        int64               `json:"order_id"`
	PaymentMethod  order.PaymentMethod `json:"payment_method"`
	Cash           float64             `json:"cash"`
	Transfer       float64             `json:"transfer"`
	Items          []viewItem          `json:"items"`
	DeletedItemIDs []int64             `json:"deleted_item_ids"`
	GrandTotal     float64             `json:"grand_total"`
}

// view snapshots the session. Callers must hold es.mu.
func view(es *editSession) editView {
	items := es.wc.Items()
	viewItems := make([]viewItem, len(items))
	for i, it := range items {
		viewItems[i] = viewItem{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			Price:           it.Price.InexactFloat64(),
			DiscountPercent: it.DiscountPercent.InexactFloat64(),
			Subtotal:        it.Subtotal.InexactFloat64(),
		}
	}

	cash, transfer := es.wc.PaymentSplit()
	return editView{
		SessionID:      es.id,
		OrderID:        es.wc.OrderID(),
		PaymentMethod:  es.wc.PaymentMethod(),
		Cash:           cash.InexactFloat64(),
		Transfer:       transfer.InexactFloat64(),
		Items:          viewItems,
		DeletedItemIDs: es.wc.DeletedItemIDs(),
		GrandTotal:     es.wc.GrandTotal().InexactFloat64(),
	}
}

func (g *Gateway) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "order id must be numeric"))
		return
	}

	wc, products, err := g.orders.Load(r.Context(), id)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	es := g.edits.open(wc, products)
	es.mu.Lock()
	defer es.mu.Unlock()
	writeJSON(w, http.StatusCreated, view(es))
}

func (g *Gateway) handleEditState(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()
	writeJSON(w, http.StatusOK, view(es))
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
}

func (g *Gateway) handleAddItem(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "decode add item body"))
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if len(es.products) == 0 {
		g.writeError(r.Context(), w, order.ErrNoProducts)
		return
	}

	// Default to the first catalog product when none was picked yet.
	p := es.products[0]
	if req.ProductID != 0 {
		p, err = es.findProduct(req.ProductID)
		if err != nil {
			g.writeError(r.Context(), w, err)
			return
		}
	}

	es.wc.AddItem(p)
	writeJSON(w, http.StatusOK, view(es))
}

type updateItemRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (g *Gateway) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "item index must be numeric"))
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "decode update item body"))
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	switch order.Field(req.Field) {
	case order.FieldProduct:
		// Switching a product resolves it from the catalog snapshot so the
		// line picks up the retail price and name.
		id, ok := asInt64(req.Value)
		if !ok {
			g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "product value must be numeric"))
			return
		}
		p, err := es.findProduct(id)
		if err != nil {
			g.writeError(r.Context(), w, err)
			return
		}
		err = es.wc.SetProduct(index, p)
		if err != nil {
			g.writeError(r.Context(), w, err)
			return
		}
	default:
		if err := es.wc.UpdateItemField(index, order.Field(req.Field), req.Value); err != nil {
			g.writeError(r.Context(), w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, view(es))
}

func (g *Gateway) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "item index must be numeric"))
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if err := es.wc.RemoveItem(index); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(es))
}

type paymentSplitRequest struct {
	Cash     float64 `json:"cash"`
	Transfer float64 `json:"transfer"`
}

func (g *Gateway) handlePaymentSplit(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	var req paymentSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "decode payment body"))
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	es.wc.SetPaymentSplit(decimal.NewFromFloat(req.Cash), decimal.NewFromFloat(req.Transfer))
	writeJSON(w, http.StatusOK, view(es))
}

func (g *Gateway) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	es, err := g.edits.get(r.PathValue("sid"))
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	// Single-method orders derive their split directly from the total;
	// mixed orders must have it set explicitly before saving.
	switch es.wc.PaymentMethod() {
	case order.PaymentCash:
		es.wc.SetPaymentSplit(es.wc.GrandTotal(), decimal.Zero)
	case order.PaymentTransfer:
		es.wc.SetPaymentSplit(decimal.Zero, es.wc.GrandTotal())
	}

	if err := g.orders.Save(r.Context(), es.wc); err != nil {
		// The working copy is untouched; the user can fix and retry.
		g.writeError(r.Context(), w, err)
		return
	}

	// Saved: discard the working copy. The upstream record is canonical
	// now and the UI reloads from it.
	g.edits.close(es.id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (g *Gateway) handleDiscardEdit(w http.ResponseWriter, r *http.Request) {
	if _, err := g.edits.get(r.PathValue("sid")); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	g.edits.close(r.PathValue("sid"))
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "product id must be numeric"))
		return
	}

	var adj product.StockAdjustment
	if err := json.NewDecoder(r.Body).Decode(&adj); err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "decode stock body"))
		return
	}

	if err := g.products.AdjustStock(r.Context(), id, adj); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// asInt64 reads a JSON number or numeric string as an int64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
