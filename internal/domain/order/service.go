package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/domain/product"
)

// Service loads orders into working copies and submits edited copies back
// upstream. The upstream API stays the sole authority for durable state:
// on a successful save the caller is expected to discard the working copy
// and reload, and on failure the local copy is left untouched so the user
// can retry.
type Service struct {
	orders   Repository
	products product.Repository
}

// NewService creates a Service over the given upstream repositories.
func NewService(orders Repository, products product.Repository) *Service {
	return &Service{
		orders:   orders,
		products: products,
	}
}

// List fetches the sales report rows matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Summary, error) {
	summaries, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return summaries, nil
}

// Load fetches the order and the product catalog and opens a working copy.
// ErrNotFound passes through untouched so callers can surface it inline.
func (s *Service) Load(ctx context.Context, id int64) (*WorkingCopy, []product.Product, error) {
	detail, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, errors.Wrapf(err, "get order %d", id)
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list products")
	}

	return NewWorkingCopy(*detail), products, nil
}

// Save validates payment reconciliation and submits the working copy's
// payload as an update to its order. The working copy itself is never
// mutated here; a failed save leaves items and tombstones intact.
func (s *Service) Save(ctx context.Context, wc *WorkingCopy) error {
	if err := wc.ValidatePayment(); err != nil {
		return err
	}

	if err := s.orders.Update(ctx, wc.OrderID(), wc.SavePayload()); err != nil {
		return errors.Wrapf(err, "update order %d", wc.OrderID())
	}
	return nil
}
