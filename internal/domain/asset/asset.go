// Package asset mirrors the upstream fixed-asset registry records.
package asset

import "github.com/shopspring/decimal"

// Category groups assets for reporting (vehicles, shop fittings, etc).
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Asset is a company asset tracked by the back office.
type Asset struct {
	ID           int64           `json:"id"`
	AssetCode    string          `json:"asset_code"`
	AssetName    string          `json:"asset_name"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	PurchaseDate string          `json:"purchase_date"`
	Value        decimal.Decimal `json:"value"`
	Condition    string          `json:"condition,omitempty"`
}
