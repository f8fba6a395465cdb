package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/directory"
	"github.com/sal-retail/backoffice/internal/domain/product"
)

var _ product.Repository = (*Products)(nil)

// Products implements product.Repository over the upstream /products
// endpoints.
type Products struct {
	api *apiclient.Client
}

// NewProducts returns a Products repository using the given client.
func NewProducts(api *apiclient.Client) *Products {
	return &Products{api: api}
}

func (r *Products) List(ctx context.Context) ([]product.Product, error) {
	body, err := r.api.Get(ctx, "/products", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch products")
	}

	raw, err := apiclient.UnwrapList(body, "products")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap products")
	}

	var products []product.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// AdjustStock adds stock to a product. The upstream PUT applies the
// "tambah" amount to the running closing stock.
func (r *Products) AdjustStock(ctx context.Context, id int64, adj product.StockAdjustment) error {
	if _, err := r.api.Put(ctx, fmt.Sprintf("/products/%d", id), adj); err != nil {
		return errors.Wrapf(err, "adjust stock for product %d", id)
	}
	return nil
}

// Directory fetches users, branches, and outlets.
type Directory struct {
	api *apiclient.Client
}

// NewDirectory returns a Directory using the given client.
func NewDirectory(api *apiclient.Client) *Directory {
	return &Directory{api: api}
}

// Users lists accounts. salesOnly narrows to sales-channel users upstream.
func (r *Directory) Users(ctx context.Context, salesOnly bool) ([]directory.User, error) {
	var q url.Values
	if salesOnly {
		q = url.Values{"salesOnly": {"true"}}
	}

	body, err := r.api.Get(ctx, "/users", q)
	if err != nil {
		return nil, errors.Wrap(err, "fetch users")
	}

	raw, err := apiclient.UnwrapList(body, "users")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap users")
	}

	var users []directory.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// Branches lists company branches. The endpoint keeps the legacy /cabang
// path.
func (r *Directory) Branches(ctx context.Context) ([]directory.Branch, error) {
	body, err := r.api.Get(ctx, "/cabang", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch branches")
	}

	raw, err := apiclient.UnwrapList(body, "branches")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap branches")
	}

	var branches []directory.Branch
	if err := json.Unmarshal(raw, &branches); err != nil {
		return nil, errors.Wrap(err, "decode branches")
	}
	return branches, nil
}

// Outlets lists customer outlets across all segments.
func (r *Directory) Outlets(ctx context.Context) ([]directory.Outlet, error) {
	body, err := r.api.Get(ctx, "/outlets", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch outlets")
	}

	raw, err := apiclient.UnwrapList(body, "outlets")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap outlets")
	}

	var outlets []directory.Outlet
	if err := json.Unmarshal(raw, &outlets); err != nil {
		return nil, errors.Wrap(err, "decode outlets")
	}
	return outlets, nil
}
