// Package gateway is the HTTP surface of the back office. It re-exposes
// each admin screen's operations to the browser UI while keeping tokens,
// validation, and order recalculation on the server side. Everything
// durable still lives upstream.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/domain/product"
	"github.com/sal-retail/backoffice/internal/resource"
	"github.com/sal-retail/backoffice/internal/session"
	"github.com/sal-retail/backoffice/internal/upstream"
)

// Config holds non-dependency gateway settings.
type Config struct {
	// EditTTL is how long an idle order editing session survives before
	// eviction.
	EditTTL time.Duration
}

// Gateway routes admin screen operations to the session manager, the order
// service, and the upstream repositories.
type Gateway struct {
	sessions *session.Manager
	orders   *order.Service
	products product.Repository
	reports  *upstream.Reports
	dir      *upstream.Directory
	registry map[string]resource.Resource
	edits    *editSessions
}

// New wires a Gateway. The eviction goroutine for idle edit sessions runs
// until ctx is cancelled.
func New(
	ctx context.Context,
	cfg Config,
	sessions *session.Manager,
	orders *order.Service,
	products product.Repository,
	reports *upstream.Reports,
	dir *upstream.Directory,
	registry map[string]resource.Resource,
) *Gateway {
	ttl := cfg.EditTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Gateway{
		sessions: sessions,
		orders:   orders,
		products: products,
		reports:  reports,
		dir:      dir,
		registry: registry,
		edits:    newEditSessions(ctx, ttl),
	}
}

// Routes returns the gateway's route table. Everything except login
// requires an authenticated admin session.
func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session/login", g.handleLogin)
	mux.HandleFunc("POST /session/logout", g.auth(g.handleLogout))
	mux.HandleFunc("GET /session/me", g.auth(g.handleMe))

	mux.HandleFunc("GET /screens/sales-report", g.auth(g.handleSalesReport))
	mux.HandleFunc("GET /screens/outlets", g.auth(g.handleOutletsScreen))

	mux.HandleFunc("POST /orders/{id}/edit", g.auth(g.handleOpenEdit))
	mux.HandleFunc("GET /edits/{sid}", g.auth(g.handleEditState))
	mux.HandleFunc("POST /edits/{sid}/items", g.auth(g.handleAddItem))
	mux.HandleFunc("PUT /edits/{sid}/items/{index}", g.auth(g.handleUpdateItem))
	mux.HandleFunc("DELETE /edits/{sid}/items/{index}", g.auth(g.handleRemoveItem))
	mux.HandleFunc("PUT /edits/{sid}/payment", g.auth(g.handlePaymentSplit))
	mux.HandleFunc("POST /edits/{sid}/save", g.auth(g.handleSaveEdit))
	mux.HandleFunc("DELETE /edits/{sid}", g.auth(g.handleDiscardEdit))

	mux.HandleFunc("PUT /products/{id}/stock", g.auth(g.handleAdjustStock))

	mux.HandleFunc("GET /entities/{name}", g.auth(g.handleEntityList))
	mux.HandleFunc("POST /entities/{name}", g.auth(g.handleEntityCreate))
	mux.HandleFunc("PUT /entities/{name}/{id}", g.auth(g.handleEntityUpdate))
	mux.HandleFunc("DELETE /entities/{name}/{id}", g.auth(g.handleEntityDelete))

	return mux
}

// auth gates a handler behind an authenticated session.
func (g *Gateway) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.sessions.Authenticated() {
			g.writeError(r.Context(), w, session.ErrNoSession)
			return
		}
		next(w, r)
	}
}
