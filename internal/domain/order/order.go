package order

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist upstream.
var ErrNotFound = errors.New("order not found")

// PaymentMethod enumerates how an order was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentMixed    PaymentMethod = "mixed"
)

// Item is one product line within an order. ID is zero for lines added in
// the current editing session and never persisted; that distinction drives
// deletion tracking, so it must survive round trips untouched.
type Item struct {
	ID              int64           `json:"id,omitempty"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

var hundred = decimal.NewFromInt(100)

// recalced returns the item with its subtotal recomputed as
// quantity x (price - price x discount/100). Subtotal is always derived,
// never edited directly.
func (it Item) recalced() Item {
	qty := decimal.NewFromInt(int64(it.Quantity))
	afterDiscount := it.Price.Sub(it.Price.Mul(it.DiscountPercent).Div(hundred))
	it.Subtotal = qty.Mul(afterDiscount)
	return it
}

// Summary is a row in the sales report list.
type Summary struct {
	ID            int64           `json:"id"`
	OutletID      int64           `json:"outlet_id"`
	OutletName    string          `json:"outlet_name,omitempty"`
	UserID        int64           `json:"user_id"`
	SalesName     string          `json:"sales_name,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Detail is a full order with its nested line items.
type Detail struct {
	ID            int64           `json:"id"`
	OutletID      int64           `json:"outlet_id"`
	UserID        int64           `json:"user_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Cash          decimal.Decimal `json:"cash"`
	Transfer      decimal.Decimal `json:"transfer"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []Item          `json:"items"`
}

// Filter narrows the sales report list. Zero values are omitted from the
// query string.
type Filter struct {
	SalesID   int64
	StartDate string
	EndDate   string
	Month     int
	Year      int
}

// Query encodes the filter as upstream query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.SalesID != 0 {
		q.Set("sales_id", strconv.FormatInt(f.SalesID, 10))
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Month != 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	return q
}

// SaveItem is the wire form of an edited line item. Monetary fields go out
// as plain JSON numbers, matching what the upstream API stores.
type SaveItem struct {
	ID              int64   `json:"id,omitempty"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount_percent"`
	Subtotal        float64 `json:"subtotal"`
}

// SavePayload is the exact order-update contract. DeletedItemIDs is the
// tombstone list: omitting it would leave the server with no signal to
// remove rows, so it is always present, even when empty.
type SavePayload struct {
	Items          []SaveItem `json:"items"`
	DeletedItemIDs []int64    `json:"deleted_item_ids"`
	GrandTotal     float64    `json:"grand_total"`
}

// Repository defines the upstream order operations.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Summary, error)
	Get(ctx context.Context, id int64) (*Detail, error)
	Update(ctx context.Context, id int64, payload SavePayload) error
}
