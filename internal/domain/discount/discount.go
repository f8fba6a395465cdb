// Package discount models per-product promotional discounts managed from the
// discounts screen. The upstream API owns the records; Apply exists so the
// back office can preview an effective price without another round trip.
package discount

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercent reduces the price by a percentage of itself.
	TypePercent Type = "percent"
	// TypeFixed subtracts a fixed amount, floored at zero.
	TypeFixed Type = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Discount is a promotional rule attached to a single product.
type Discount struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Type        Type            `json:"discount_type"`
	Value       decimal.Decimal `json:"value"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Active      bool            `json:"active"`
}

// Apply returns the price after the discount. Results never go below zero.
func (d Discount) Apply(price decimal.Decimal) (decimal.Decimal, error) {
	switch d.Type {
	case TypePercent:
		cut := price.Mul(d.Value).Div(hundred)
		return floorAtZero(price.Sub(cut)), nil
	case TypeFixed:
		return floorAtZero(price.Sub(d.Value)), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", d.Type)
	}
}

// ActiveOn reports whether the discount is enabled and its date window
// covers t. Dates use the upstream YYYY-MM-DD format; a missing or
// malformed bound is treated as open.
func (d Discount) ActiveOn(t time.Time) bool {
	if !d.Active {
		return false
	}
	if start, err := time.Parse("2006-01-02", d.StartDate); err == nil && t.Before(start) {
		return false
	}
	if end, err := time.Parse("2006-01-02", d.EndDate); err == nil && t.After(end.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
