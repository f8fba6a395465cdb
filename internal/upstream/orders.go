// Package upstream implements the domain repository interfaces against the
// remote business REST API. Nothing here owns state: every call is a pass
// through, and the server stays the single authority for durable data.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/order"
)

var _ order.Repository = (*Orders)(nil)

// Orders implements order.Repository over the upstream /orders endpoints.
type Orders struct {
	api *apiclient.Client
}

// NewOrders returns an Orders repository using the given client.
func NewOrders(api *apiclient.Client) *Orders {
	return &Orders{api: api}
}

func (r *Orders) List(ctx context.Context, f order.Filter) ([]order.Summary, error) {
	body, err := r.api.Get(ctx, "/orders", f.Query())
	if err != nil {
		return nil, errors.Wrap(err, "fetch orders")
	}

	raw, err := apiclient.UnwrapList(body, "orders")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap orders")
	}

	var summaries []order.Summary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return summaries, nil
}

func (r *Orders) Get(ctx context.Context, id int64) (*order.Detail, error) {
	body, err := r.api.Get(ctx, fmt.Sprintf("/orders/%d", id), nil)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "fetch order %d", id)
	}

	raw, err := apiclient.UnwrapObject(body, "order")
	if err != nil {
		return nil, errors.Wrap(err, "unwrap order")
	}

	var detail order.Detail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return &detail, nil
}

func (r *Orders) Update(ctx context.Context, id int64, payload order.SavePayload) error {
	if _, err := r.api.Put(ctx, fmt.Sprintf("/orders/%d", id), payload); err != nil {
		return errors.Wrapf(err, "update order %d", id)
	}
	return nil
}
