package upstream

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/directory"
	"github.com/sal-retail/backoffice/internal/domain/order"
)

// SalesReport is everything the sales report screen renders in one shot:
// the filtered orders plus the outlets and sales users needed to label them.
type SalesReport struct {
	Orders  []order.Summary    `json:"orders"`
	Outlets []directory.Outlet `json:"outlets"`
	Sales   []directory.User   `json:"sales"`
}

// Reports aggregates the report screen's upstream fetches. A ListGuard
// serializes overlapping filter changes so a slow early response can never
// overwrite a fresher one.
type Reports struct {
	orders *Orders
	dir    *Directory
	guard  apiclient.ListGuard
}

// NewReports returns a Reports aggregator over the given repositories.
func NewReports(orders *Orders, dir *Directory) *Reports {
	return &Reports{
		orders: orders,
		dir:    dir,
	}
}

// SalesReport fetches orders, outlets, and sales users concurrently for the
// given filter. A fetch superseded by a newer one returns ErrStale and its
// partial results are dropped.
func (r *Reports) SalesReport(ctx context.Context, f order.Filter) (*SalesReport, error) {
	ticket := r.guard.Start()

	var report SalesReport
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.orders.List(ctx, f)
		if err != nil {
			return errors.Wrap(err, "orders")
		}
		report.Orders = rows
		return nil
	})
	g.Go(func() error {
		outlets, err := r.dir.Outlets(ctx)
		if err != nil {
			return errors.Wrap(err, "outlets")
		}
		report.Outlets = outlets
		return nil
	})
	g.Go(func() error {
		sales, err := r.dir.Users(ctx, true)
		if err != nil {
			return errors.Wrap(err, "sales users")
		}
		report.Sales = sales
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "sales report")
	}

	if err := r.guard.Check(ticket); err != nil {
		return nil, err
	}
	return &report, nil
}
