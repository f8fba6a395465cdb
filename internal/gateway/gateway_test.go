package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/resource"
	"github.com/sal-retail/backoffice/internal/session"
	"github.com/sal-retail/backoffice/internal/upstream"
)

// fakeUpstream is a minimal stand-in for the business API, just enough
// state to drive the gateway end to end.
type fakeUpstream struct {
	mu          sync.Mutex
	lastSave    *order.SavePayload
	lastCreate  map[string]any
	saveStatus  int
	orderDetail string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		saveStatus: http.StatusOK,
		orderDetail: `{"order":{
			"id":42,"payment_method":"cash","cash":24500,"grand_total":24500,
			"items":[
				{"id":3,"product_id":101,"product_name":"Sparkling Water 600ml","quantity":2,"price":10000,"discount_percent":0,"subtotal":20000},
				{"id":7,"product_id":102,"product_name":"Instant Coffee Sachet","quantity":1,"price":5000,"discount_percent":10,"subtotal":4500}
			]}}`,
	}
}

func (f *fakeUpstream) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		segment, branch := "Admin", "null"
		switch creds["user_id"] {
		case "sales01":
			segment = "Sales"
		case "cab01":
			segment, branch = "Admin Cabang", "2"
		}
		_, _ = w.Write([]byte(`{"user":{"id":1,"user_id":"` + creds["user_id"] + `","segment":"` + segment + `","branch_id":` + branch + `},"accessToken":"a1","refreshToken":"r1","expiresIn":900}`))
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[{"id":42,"grand_total":24500}]}`))
	})
	mux.HandleFunc("GET /orders/42", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, _ = w.Write([]byte(f.orderDetail))
	})
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"order not found"}`))
	})
	mux.HandleFunc("PUT /orders/42", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var payload order.SavePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.lastSave = &payload
		w.WriteHeader(f.saveStatus)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":101,"sku":"SW-600","name":"Sparkling Water 600ml","price_retail":10000},
			{"id":102,"sku":"IC-01","name":"Instant Coffee Sachet","price_retail":5000},
			{"id":103,"sku":"CO-1L","name":"Cooking Oil 1L","price_retail":3000}
		]`))
	})
	mux.HandleFunc("PUT /products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /outlets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastCreate))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /outlets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":10,"store_name":"Toko Jaya","segment":"Retail"},
			{"id":11,"store_name":"CV Makmur","segment":"Wholesale"}
		]`))
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"id":3,"user_id":"sales01","segment":"Retail"}]}`))
	})
	mux.HandleFunc("GET /cabang", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"branches":[{"id":1,"branch_code":"JKT","branch_name":"Jakarta"}]}`))
	})
	mux.HandleFunc("GET /diskon", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":5,"product_id":101,"discount_type":"percent","value":10}]`))
	})
	mux.HandleFunc("DELETE /discounts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	return mux
}

// newTestGateway wires a full gateway over the fake upstream and returns
// its HTTP server plus the fake for assertions.
func newTestGateway(t *testing.T) (*httptest.Server, *fakeUpstream) {
	t.Helper()

	fake := newFakeUpstream()
	upstreamSrv := httptest.NewServer(fake.handler(t))
	t.Cleanup(upstreamSrv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := &session.Tokens{}
	api := apiclient.New(upstreamSrv.URL, tokens, apiclient.WithHTTPClient(upstreamSrv.Client()))
	sessions := session.NewManager(api, tokens, &session.MemoryStore{})

	orderRepo := upstream.NewOrders(api)
	productRepo := upstream.NewProducts(api)
	dir := upstream.NewDirectory(api)

	gw := New(ctx, Config{},
		sessions,
		order.NewService(orderRepo, productRepo),
		productRepo,
		upstream.NewReports(orderRepo, dir),
		dir,
		resource.Registry(api),
	)

	srv := httptest.NewServer(gw.Routes())
	t.Cleanup(srv.Close)
	return srv, fake
}

// doJSON issues a request and decodes the JSON response into out when the
// pointer is non-nil.
func doJSON(t *testing.T, method, url string, body, out any) int {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, srv *httptest.Server) {
	t.Helper()
	status := doJSON(t, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"user_id": "admin01", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, status)
}

// --- Tests ---

func TestGateway_RequiresSession(t *testing.T) {
	srv, _ := newTestGateway(t)

	for _, path := range []string{
		"/session/me",
		"/screens/sales-report",
		"/entities/products",
	} {
		status := doJSON(t, http.MethodGet, srv.URL+path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestGateway_Login(t *testing.T) {
	srv, _ := newTestGateway(t)

	var resp struct {
		User struct {
			UserID  string `json:"user_id"`
			Segment string `json:"segment"`
		} `json:"user"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"user_id": "admin01", "password": "secret"}, &resp)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin01", resp.User.UserID)

	status = doJSON(t, http.MethodGet, srv.URL+"/session/me", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestGateway_Login_NonAdminRejected(t *testing.T) {
	srv, _ := newTestGateway(t)

	status := doJSON(t, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"user_id": "sales01", "password": "secret"}, nil)

	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGateway_Login_MissingFields(t *testing.T) {
	srv, _ := newTestGateway(t)

	status := doJSON(t, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"user_id": "admin01"}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestGateway_EditFlow(t *testing.T) {
	srv, fake := newTestGateway(t)
	login(t, srv)

	// Open an edit session over order 42.
	var state editView
	status := doJSON(t, http.MethodPost, srv.URL+"/orders/42/edit", nil, &state)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, state.Items, 2)
	assert.InDelta(t, 24500, state.GrandTotal, 0.001)
	sid := state.SessionID

	// Bump the first line's quantity.
	status = doJSON(t, http.MethodPut, srv.URL+"/edits/"+sid+"/items/0",
		map[string]any{"field": "quantity", "value": 3}, &state)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 34500, state.GrandTotal, 0.001)

	// Remove the second, persisted line.
	status = doJSON(t, http.MethodDelete, srv.URL+"/edits/"+sid+"/items/1", nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 30000, state.GrandTotal, 0.001)
	assert.Equal(t, []int64{7}, state.DeletedItemIDs)

	// Add a line for a catalog product. Decode into a fresh struct: the
	// removed line's id would otherwise survive in the reused slice's backing
	// array, since the new line's zero id is omitted from the response.
	state = editView{}
	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/items",
		map[string]any{"product_id": 103}, &state)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, state.Items, 2)
	assert.InDelta(t, 33000, state.GrandTotal, 0.001)
	assert.Zero(t, state.Items[1].ID)

	// Save. The cash order settles its split from the live total.
	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/save", nil, nil)
	require.Equal(t, http.StatusOK, status)

	fake.mu.Lock()
	saved := fake.lastSave
	fake.mu.Unlock()
	require.NotNil(t, saved)
	assert.InDelta(t, 33000, saved.GrandTotal, 0.001)
	assert.Equal(t, []int64{7}, saved.DeletedItemIDs)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, int64(103), saved.Items[1].ProductID)

	// The session is gone after a successful save.
	status = doJSON(t, http.MethodGet, srv.URL+"/edits/"+sid, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGateway_EditValidationErrors(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	var state editView
	status := doJSON(t, http.MethodPost, srv.URL+"/orders/42/edit", nil, &state)
	require.Equal(t, http.StatusCreated, status)
	sid := state.SessionID

	// Out of range index.
	status = doJSON(t, http.MethodPut, srv.URL+"/edits/"+sid+"/items/9",
		map[string]any{"field": "quantity", "value": 1}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Unknown field.
	status = doJSON(t, http.MethodPut, srv.URL+"/edits/"+sid+"/items/0",
		map[string]any{"field": "color", "value": "red"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Unknown product id on add.
	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/items",
		map[string]any{"product_id": 999}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Unknown order.
	status = doJSON(t, http.MethodPost, srv.URL+"/orders/999/edit", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGateway_SaveFailureKeepsSession(t *testing.T) {
	srv, fake := newTestGateway(t)
	login(t, srv)

	var state editView
	status := doJSON(t, http.MethodPost, srv.URL+"/orders/42/edit", nil, &state)
	require.Equal(t, http.StatusCreated, status)
	sid := state.SessionID

	fake.mu.Lock()
	fake.saveStatus = http.StatusInternalServerError
	fake.mu.Unlock()

	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/save", nil, nil)
	assert.Equal(t, http.StatusBadGateway, status)

	// The working copy survives for a retry.
	status = doJSON(t, http.MethodGet, srv.URL+"/edits/"+sid, nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, state.Items, 2)
}

func TestGateway_MixedPaymentNeedsExplicitSplit(t *testing.T) {
	srv, fake := newTestGateway(t)
	fake.orderDetail = `{"order":{
		"id":42,"payment_method":"mixed","cash":20000,"transfer":4500,"grand_total":24500,
		"items":[{"id":3,"product_id":101,"quantity":2,"price":10000,"discount_percent":0,"subtotal":20000},
			{"id":7,"product_id":102,"quantity":1,"price":5000,"discount_percent":10,"subtotal":4500}]}}`
	login(t, srv)

	var state editView
	status := doJSON(t, http.MethodPost, srv.URL+"/orders/42/edit", nil, &state)
	require.Equal(t, http.StatusCreated, status)
	sid := state.SessionID

	// Cut the order down; the stored split no longer reconciles.
	status = doJSON(t, http.MethodDelete, srv.URL+"/edits/"+sid+"/items/1", nil, &state)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/save", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// An explicit split matching the new total unblocks the save.
	status = doJSON(t, http.MethodPut, srv.URL+"/edits/"+sid+"/payment",
		map[string]any{"cash": 15000, "transfer": 5000}, nil)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, http.MethodPost, srv.URL+"/edits/"+sid+"/save", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestGateway_DiscardEdit(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	var state editView
	status := doJSON(t, http.MethodPost, srv.URL+"/orders/42/edit", nil, &state)
	require.Equal(t, http.StatusCreated, status)

	status = doJSON(t, http.MethodDelete, srv.URL+"/edits/"+state.SessionID, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	status = doJSON(t, http.MethodGet, srv.URL+"/edits/"+state.SessionID, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGateway_SalesReportScreen(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	var report struct {
		Orders  []json.RawMessage `json:"orders"`
		Outlets []json.RawMessage `json:"outlets"`
		Sales   []json.RawMessage `json:"sales"`
	}
	status := doJSON(t, http.MethodGet, srv.URL+"/screens/sales-report?month=8&year=2026", nil, &report)

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, report.Orders, 1)
	assert.Len(t, report.Outlets, 2)
	assert.Len(t, report.Sales, 1)
}

func TestGateway_OutletsScreenSegmentFilter(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	var resp struct {
		Outlets []struct {
			StoreName string `json:"store_name"`
		} `json:"outlets"`
	}
	status := doJSON(t, http.MethodGet, srv.URL+"/screens/outlets?segment=Wholesale", nil, &resp)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Outlets, 1)
	assert.Equal(t, "CV Makmur", resp.Outlets[0].StoreName)
}

func TestGateway_Entities(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	var branches []struct {
		BranchCode string `json:"branch_code"`
	}
	status := doJSON(t, http.MethodGet, srv.URL+"/entities/branches", nil, &branches)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, branches, 1)
	assert.Equal(t, "JKT", branches[0].BranchCode)

	// Unknown entity type.
	status = doJSON(t, http.MethodGet, srv.URL+"/entities/invoices", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Client-side validation stops an incomplete create.
	status = doJSON(t, http.MethodPost, srv.URL+"/entities/branches",
		map[string]any{"branch_code": "SBY"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Delete routes through the mutate path.
	status = doJSON(t, http.MethodDelete, srv.URL+"/entities/discounts/5", nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestGateway_BranchAdminScopesCreates(t *testing.T) {
	srv, fake := newTestGateway(t)

	status := doJSON(t, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"user_id": "cab01", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, http.MethodPost, srv.URL+"/entities/outlets",
		map[string]any{
			"store_name": "Toko Baru",
			"owner_name": "Budi",
			"segment":    "Retail",
		}, nil)
	require.Equal(t, http.StatusCreated, status)

	fake.mu.Lock()
	created := fake.lastCreate
	fake.mu.Unlock()
	require.NotNil(t, created)
	assert.Equal(t, float64(2), created["branch_id"])
}

func TestGateway_AdjustStock(t *testing.T) {
	srv, _ := newTestGateway(t)
	login(t, srv)

	status := doJSON(t, http.MethodPut, srv.URL+"/products/101/stock",
		map[string]int{"tambah": 24}, nil)
	assert.Equal(t, http.StatusOK, status)
}
