package order

import (
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sal-retail/backoffice/internal/domain/product"
)

// Field names a mutable line item field for UpdateItemField.
type Field string

const (
	FieldProduct         Field = "product_id"
	FieldQuantity        Field = "quantity"
	FieldPrice           Field = "price"
	FieldDiscountPercent Field = "discount_percent"
)

// Sentinel errors for working copy operations.
var (
	ErrIndexOutOfRange = errors.New("item index out of range")
	ErrUnknownField    = errors.New("unknown item field")
	ErrNoProducts      = errors.New("no products available")
	ErrPaymentMismatch = errors.New("payment split does not match grand total")
)

// WorkingCopy is the locally mutable projection of an order being edited.
// Every mutation recomputes the affected line subtotal and the grand total,
// so the copy is internally consistent at all times. Items removed after
// having been persisted are tracked as tombstones for the save payload.
//
// Mutations are copy-on-write over the item slice: callers holding a slice
// from Items never observe later edits.
//
// A WorkingCopy is not safe for concurrent use.
type WorkingCopy struct {
	orderID       int64
	paymentMethod PaymentMethod
	cash          decimal.Decimal
	transfer      decimal.Decimal
	items         []Item
	deleted       []int64
	grandTotal    decimal.Decimal
}

// NewWorkingCopy starts an editing session over a loaded order. Items are
// taken from the server response verbatim; the tombstone set starts empty.
func NewWorkingCopy(d Detail) *WorkingCopy {
	items := make([]Item, len(d.Items))
	copy(items, d.Items)

	return &WorkingCopy{
		orderID:       d.ID,
		paymentMethod: d.PaymentMethod,
		cash:          d.Cash,
		transfer:      d.Transfer,
		items:         items,
		deleted:       []int64{},
		grandTotal:    d.GrandTotal,
	}
}

// OrderID returns the id of the order under edit.
func (wc *WorkingCopy) OrderID() int64 { return wc.orderID }

// PaymentMethod returns the order's payment method.
func (wc *WorkingCopy) PaymentMethod() PaymentMethod { return wc.paymentMethod }

// GrandTotal returns the current derived grand total.
func (wc *WorkingCopy) GrandTotal() decimal.Decimal { return wc.grandTotal }

// Items returns a copy of the current line items.
func (wc *WorkingCopy) Items() []Item {
	return slices.Clone(wc.items)
}

// DeletedItemIDs returns a copy of the accumulated tombstones.
func (wc *WorkingCopy) DeletedItemIDs() []int64 {
	return slices.Clone(wc.deleted)
}

// PaymentSplit returns the current cash and transfer amounts.
func (wc *WorkingCopy) PaymentSplit() (cash, transfer decimal.Decimal) {
	return wc.cash, wc.transfer
}

// UpdateItemField replaces one field on the item at index and recomputes
// that item's subtotal and the grand total. Non-numeric quantity, price,
// or discount input coerces to zero; discount percent is clamped to
// [0, 100]. For FieldProduct the value must be a product.Product; use
// SetProduct for the typed form.
func (wc *WorkingCopy) UpdateItemField(index int, field Field, value any) error {
	if index < 0 || index >= len(wc.items) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d items", index, len(wc.items))
	}

	item := wc.items[index]
	switch field {
	case FieldProduct:
		p, ok := value.(product.Product)
		if !ok {
			return errors.Wrapf(ErrUnknownField, "product field requires a product value, got %T", value)
		}
		item.ProductID = p.ID
		item.ProductName = p.Name
		item.Price = p.PriceRetail
	case FieldQuantity:
		item.Quantity = coerceQuantity(value)
	case FieldPrice:
		item.Price = coerceMoney(value)
	case FieldDiscountPercent:
		item.DiscountPercent = clampPercent(coerceMoney(value))
	default:
		return errors.Wrapf(ErrUnknownField, "%q", field)
	}

	wc.setItem(index, item.recalced())
	return nil
}

// SetProduct switches the item at index to the given product, resetting the
// line price to the product's retail price.
func (wc *WorkingCopy) SetProduct(index int, p product.Product) error {
	return wc.UpdateItemField(index, FieldProduct, p)
}

// AddItem appends a new, not-yet-persisted line seeded from the given
// product: quantity 1, retail price, no discount, no id.
func (wc *WorkingCopy) AddItem(p product.Product) {
	item := Item{
		ProductID:       p.ID,
		ProductName:     p.Name,
		Quantity:        1,
		Price:           p.PriceRetail,
		DiscountPercent: decimal.Zero,
	}

	items := slices.Clone(wc.items)
	wc.items = append(items, item.recalced())
	wc.grandTotal = sumSubtotals(wc.items)
}

// RemoveItem drops the item at index. A persisted item's id is recorded as
// a tombstone at most once; items added this session and never saved leave
// no trace.
func (wc *WorkingCopy) RemoveItem(index int) error {
	if index < 0 || index >= len(wc.items) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d items", index, len(wc.items))
	}

	removed := wc.items[index]
	if removed.ID != 0 && !slices.Contains(wc.deleted, removed.ID) {
		wc.deleted = append(wc.deleted, removed.ID)
	}

	items := make([]Item, 0, len(wc.items)-1)
	items = append(items, wc.items[:index]...)
	items = append(items, wc.items[index+1:]...)
	wc.items = items
	wc.grandTotal = sumSubtotals(items)
	return nil
}

// SetPaymentSplit updates the local cash/transfer amounts so the payment
// reconciliation check can pass after edits changed the grand total.
func (wc *WorkingCopy) SetPaymentSplit(cash, transfer decimal.Decimal) {
	wc.cash = cash
	wc.transfer = transfer
}

// ValidatePayment checks that the payment fields reconcile with the derived
// grand total: the single field for cash/transfer orders, the sum for mixed
// orders. Unknown payment methods are not checked.
func (wc *WorkingCopy) ValidatePayment() error {
	switch wc.paymentMethod {
	case PaymentCash:
		if !wc.cash.Equal(wc.grandTotal) {
			return errors.Wrapf(ErrPaymentMismatch, "cash %s vs total %s", wc.cash, wc.grandTotal)
		}
	case PaymentTransfer:
		if !wc.transfer.Equal(wc.grandTotal) {
			return errors.Wrapf(ErrPaymentMismatch, "transfer %s vs total %s", wc.transfer, wc.grandTotal)
		}
	case PaymentMixed:
		if !wc.cash.Add(wc.transfer).Equal(wc.grandTotal) {
			return errors.Wrapf(ErrPaymentMismatch, "cash %s + transfer %s vs total %s",
				wc.cash, wc.transfer, wc.grandTotal)
		}
	}
	return nil
}

// SavePayload serializes the current state into the order-update contract.
// GrandTotal is the live derived value; it is never recomputed here.
func (wc *WorkingCopy) SavePayload() SavePayload {
	items := make([]SaveItem, len(wc.items))
	for i, it := range wc.items {
		items[i] = SaveItem{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			Price:           it.Price.InexactFloat64(),
			DiscountPercent: it.DiscountPercent.InexactFloat64(),
			Subtotal:        it.Subtotal.InexactFloat64(),
		}
	}

	return SavePayload{
		Items:          items,
		DeletedItemIDs: slices.Clone(wc.deleted),
		GrandTotal:     wc.grandTotal.InexactFloat64(),
	}
}

// setItem writes a recalculated item back at index on a fresh slice and
// refreshes the grand total.
func (wc *WorkingCopy) setItem(index int, item Item) {
	items := slices.Clone(wc.items)
	items[index] = item
	wc.items = items
	wc.grandTotal = sumSubtotals(items)
}

func sumSubtotals(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// coerceQuantity turns arbitrary input into a non-negative item count.
// Anything non-numeric counts as zero.
func coerceQuantity(v any) int {
	n := coerceMoney(v).IntPart()
	if n < 0 {
		return 0
	}
	return int(n)
}

// coerceMoney turns arbitrary input into a non-negative decimal. Anything
// non-numeric counts as zero.
func coerceMoney(v any) decimal.Decimal {
	var d decimal.Decimal
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case float64:
		d = decimal.NewFromFloat(n)
	case string:
		parsed, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case nil:
		return decimal.Zero
	default:
		s, err := decimal.NewFromString(toString(v))
		if err != nil {
			return decimal.Zero
		}
		d = s
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func toString(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	if f, ok := v.(float32); ok {
		return strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return ""
}

// clampPercent bounds a discount percentage to [0, 100].
func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
