package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/domain/product"
)

// --- Helpers ---

type noTokens struct{}

func (noTokens) AccessToken() string             { return "tok" }
func (noTokens) RefreshToken() string            { return "" }
func (noTokens) UpdateTokens(_, _ string, _ int) {}

func newAPI(t *testing.T, handler http.Handler) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL, noTokens{}, apiclient.WithHTTPClient(srv.Client()))
}

// --- Tests ---

func TestOrders_List_PassesFilter(t *testing.T) {
	var gotQuery string
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"orders":[{"id":1,"grand_total":24500}]}`))
	}))
	repo := NewOrders(api)

	rows, err := repo.List(context.Background(), order.Filter{Month: 8, Year: 2026, SalesID: 3})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "month=8&sales_id=3&year=2026", gotQuery)
}

func TestOrders_Get_MapsNotFound(t *testing.T) {
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"order not found"}`))
	}))
	repo := NewOrders(api)

	_, err := repo.Get(context.Background(), 99)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrders_Get_UnwrapsEnvelope(t *testing.T) {
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"order":{"id":42,"payment_method":"cash","grand_total":24500,"items":[{"id":3,"product_id":101,"quantity":2,"price":10000,"discount_percent":0,"subtotal":20000}]}}`))
	}))
	repo := NewOrders(api)

	detail, err := repo.Get(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.ID)
	assert.Equal(t, order.PaymentCash, detail.PaymentMethod)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, 2, detail.Items[0].Quantity)
}

func TestOrders_Update_SendsPayload(t *testing.T) {
	var got order.SavePayload
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/orders/42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	repo := NewOrders(api)

	payload := order.SavePayload{
		Items:          []order.SaveItem{{ID: 3, ProductID: 101, Quantity: 2, Price: 10000, Subtotal: 20000}},
		DeletedItemIDs: []int64{7},
		GrandTotal:     20000,
	}
	require.NoError(t, repo.Update(context.Background(), 42, payload))

	assert.Equal(t, payload, got)
}

func TestProducts_AdjustStock(t *testing.T) {
	var got map[string]int
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/products/5", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	repo := NewProducts(api)

	require.NoError(t, repo.AdjustStock(context.Background(), 5, product.StockAdjustment{Add: 12}))
	assert.Equal(t, map[string]int{"tambah": 12}, got)
}

func TestDirectory_Users_SalesOnly(t *testing.T) {
	var gotQuery string
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"users":[{"id":1,"segment":"Retail"}]}`))
	}))
	dir := NewDirectory(api)

	users, err := dir.Users(context.Background(), true)

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "salesOnly=true", gotQuery)
}

func TestReports_SalesReport(t *testing.T) {
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders":
			_, _ = w.Write([]byte(`{"orders":[{"id":1},{"id":2}]}`))
		case "/outlets":
			_, _ = w.Write([]byte(`[{"id":10,"store_name":"Toko Jaya","segment":"Retail"}]`))
		case "/users":
			assert.Equal(t, "true", r.URL.Query().Get("salesOnly"))
			_, _ = w.Write([]byte(`{"users":[{"id":3,"segment":"Retail"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	reports := NewReports(NewOrders(api), NewDirectory(api))

	report, err := reports.SalesReport(context.Background(), order.Filter{})

	require.NoError(t, err)
	assert.Len(t, report.Orders, 2)
	assert.Len(t, report.Outlets, 1)
	assert.Len(t, report.Sales, 1)
}

func TestReports_SalesReport_StaleFetchDiscarded(t *testing.T) {
	release := make(chan struct{})
	api := newAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first fetch's order list stalls until the second one finished.
		if r.URL.Path == "/orders" && r.URL.Query().Get("month") == "7" {
			<-release
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	reports := NewReports(NewOrders(api), NewDirectory(api))

	firstErr := make(chan error, 1)
	go func() {
		_, err := reports.SalesReport(context.Background(), order.Filter{Month: 7})
		firstErr <- err
	}()

	// Second fetch supersedes the first, then the first is released.
	waitForTicket(t, reports)
	_, err := reports.SalesReport(context.Background(), order.Filter{Month: 8})
	require.NoError(t, err)
	close(release)

	require.ErrorIs(t, <-firstErr, apiclient.ErrStale)
}

// waitForTicket blocks until the first fetch has taken its ticket, so the
// second fetch is guaranteed to supersede it.
func waitForTicket(t *testing.T, r *Reports) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !r.guard.Latest(0)
	}, time.Second, time.Millisecond)
}
