package resource

import (
	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/asset"
	"github.com/sal-retail/backoffice/internal/domain/directory"
	"github.com/sal-retail/backoffice/internal/domain/discount"
	"github.com/sal-retail/backoffice/internal/domain/product"
)

// Schemas for every entity screen. Path oddities are upstream facts, not
// choices: branches live under /cabang, and discounts list from /diskon
// but mutate under /discounts.

// ProductsSchema covers the product catalog.
func ProductsSchema() Schema {
	return Schema{
		Name:        "products",
		ListPath:    "/products",
		MutatePath:  "/products",
		EnvelopeKey: "products",
		Required:    []string{"sku", "name"},
	}
}

// OutletsSchema covers retail, agent, and wholesale outlets.
func OutletsSchema() Schema {
	return Schema{
		Name:        "outlets",
		ListPath:    "/outlets",
		MutatePath:  "/outlets",
		EnvelopeKey: "outlets",
		Required:    []string{"store_name", "owner_name", "branch_id", "segment"},
	}
}

// UsersSchema covers sales, admin, and management accounts.
func UsersSchema() Schema {
	return Schema{
		Name:             "users",
		ListPath:         "/users",
		MutatePath:       "/users",
		EnvelopeKey:      "users",
		Required:         []string{"user_id", "name", "segment"},
		RequiredOnCreate: []string{"password"},
	}
}

// BranchesSchema covers company branches (cabang).
func BranchesSchema() Schema {
	return Schema{
		Name:        "branches",
		ListPath:    "/cabang",
		MutatePath:  "/cabang",
		EnvelopeKey: "branches",
		Required:    []string{"branch_code", "branch_name"},
	}
}

// DiscountsSchema covers per-product promotional discounts.
func DiscountsSchema() Schema {
	return Schema{
		Name:        "discounts",
		ListPath:    "/diskon",
		MutatePath:  "/discounts",
		EnvelopeKey: "discounts",
		Required:    []string{"product_id", "discount_type", "value"},
	}
}

// AssetsSchema covers the fixed-asset registry.
func AssetsSchema() Schema {
	return Schema{
		Name:        "assets",
		ListPath:    "/assets",
		MutatePath:  "/assets",
		EnvelopeKey: "assets",
		Required:    []string{"asset_code", "asset_name", "purchase_date", "value"},
	}
}

// AssetCategoriesSchema covers asset categories.
func AssetCategoriesSchema() Schema {
	return Schema{
		Name:        "asset-categories",
		ListPath:    "/asset-categories",
		MutatePath:  "/asset-categories",
		EnvelopeKey: "categories",
		Required:    []string{"name"},
	}
}

// Registry builds the full entity-name to CRUD client map the gateway
// routes against.
func Registry(api *apiclient.Client) map[string]Resource {
	resources := []Resource{
		NewClient[product.Product](api, ProductsSchema()),
		NewClient[directory.Outlet](api, OutletsSchema()),
		NewClient[directory.User](api, UsersSchema()),
		NewClient[directory.Branch](api, BranchesSchema()),
		NewClient[discount.Discount](api, DiscountsSchema()),
		NewClient[asset.Asset](api, AssetsSchema()),
		NewClient[asset.Category](api, AssetCategoriesSchema()),
	}

	registry := make(map[string]Resource, len(resources))
	for _, r := range resources {
		registry[r.Name()] = r
	}
	return registry
}
