package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item with per-channel pricing and stock counters.
//
// Stock carries two figures: the opening stock recorded when the product was
// registered, and the running closing stock adjusted by stock operations.
// Order editing never touches either counter.
type Product struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	PriceRetail     decimal.Decimal `json:"price_retail"`
	PriceWholesaler decimal.Decimal `json:"price_wholesaler"`
	PriceAgent      decimal.Decimal `json:"price_agent"`
	Stock           int             `json:"stock"`
	StockClosing    int             `json:"stock_akhir"`
}

// PriceFor returns the catalog price for the given sales channel segment.
// Unknown segments fall back to the retail price.
func (p Product) PriceFor(segment string) decimal.Decimal {
	switch segment {
	case "Wholesale":
		return p.PriceWholesaler
	case "Agent":
		return p.PriceAgent
	default:
		return p.PriceRetail
	}
}

// StockAdjustment is the upstream contract for adding stock to a product.
// The amount is added to the running closing stock server-side.
type StockAdjustment struct {
	Add int `json:"tambah"`
}

// Repository defines read and stock operations against the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	AdjustStock(ctx context.Context, id int64, adj StockAdjustment) error
}
