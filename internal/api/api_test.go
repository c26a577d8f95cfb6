package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/imaging"
	"github.com/erazemk/blagajna/internal/inventory"
	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/telemetry"
)

func setupTestServer(t *testing.T, limiter *rate.Limiter) *httptest.Server {
	t.Helper()

	database := db.NewTestDB(t)
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	s := store.New(database, store.Options{})
	imagesDir := t.TempDir()

	router := NewRouter(Deps{
		Catalog:   inventory.NewCatalog(s, imaging.NewQRGenerator(imagesDir, 64), logger, metrics),
		Ledger:    inventory.NewLedger(s, logger, metrics),
		Reports:   inventory.NewReports(s, logger, metrics, inventory.ReportOptions{LowStockThreshold: 5, TopLimit: 5}),
		DB:        database,
		ImagesDir: imagesDir,
		Logger:    logger,
		Metrics:   metrics,
		Gatherer:  reg,
		Limiter:   limiter,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createItem(t *testing.T, server *httptest.Server, name string, qty int, price string) model.Item {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/api/items", map[string]any{
		"name": name, "quantity": qty, "price": price,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Item](t, resp)
}

func TestItemsCRUD(t *testing.T) {
	server := setupTestServer(t, nil)

	item := createItem(t, server, "Widget", 10, "2.50")
	assert.Equal(t, "Widget", item.Name)
	require.NotNil(t, item.ImageRef)
	assert.Equal(t, "qr_codes/1_Widget.png", *item.ImageRef)

	resp := doJSON(t, http.MethodGet, server.URL+"/"+*item.ImageRef, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = doJSON(t, http.MethodGet, server.URL+"/api/items/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Item](t, resp)
	assert.Equal(t, item.ID, got.ID)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/items/1", map[string]any{
		"name": "Gadget", "quantity": 4, "price": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Item](t, resp)
	assert.Equal(t, "Gadget", updated.Name)
	assert.Equal(t, 4, updated.Quantity)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/items?q=gad", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.Item](t, resp), 1)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/items/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/items/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListItemsEmptyIsArray(t *testing.T) {
	server := setupTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(body))
}

func TestCreateItemValidation(t *testing.T) {
	server := setupTestServer(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"empty name", map[string]any{"name": "", "quantity": 1, "price": "1"}},
		{"negative quantity", map[string]any{"name": "x", "quantity": -1, "price": "1"}},
		{"negative price", map[string]any{"name": "x", "quantity": 1, "price": "-2"}},
		{"malformed", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+"/api/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSellEndpoint(t *testing.T) {
	server := setupTestServer(t, nil)
	createItem(t, server, "Widget", 10, "2.50")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/items/1/sell", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[model.Sale](t, resp)
	assert.Equal(t, 3, sale.Quantity)
	assert.Equal(t, "7.5", sale.Total.String())

	tests := []struct {
		name   string
		url    string
		qty    int
		status int
	}{
		{"insufficient stock", "/api/items/1/sell", 8, http.StatusConflict},
		{"zero quantity", "/api/items/1/sell", 0, http.StatusBadRequest},
		{"negative quantity", "/api/items/1/sell", -1, http.StatusBadRequest},
		{"unknown item", "/api/items/99/sell", 1, http.StatusNotFound},
		{"bad id", "/api/items/abc/sell", 1, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+tt.url, map[string]int{"quantity": tt.qty})
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/items/1", nil)
	item := decode[model.Item](t, resp)
	assert.Equal(t, 7, item.Quantity)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/sales", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sales := decode[[]model.Sale](t, resp)
	require.Len(t, sales, 1)
	assert.Equal(t, "Widget", sales[0].ItemName)
}

func TestReportEndpoints(t *testing.T) {
	server := setupTestServer(t, nil)
	createItem(t, server, "Widget", 10, "2.50")
	createItem(t, server, "Gadget", 3, "1")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/items/1/sell", map[string]int{"quantity": 6})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/monthly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	monthly := decode[[]model.MonthlyTotal](t, resp)
	require.Len(t, monthly, 1)
	assert.Equal(t, "15", monthly[0].Total.String())

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/top?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []model.TopSeller{{Name: "Widget", Quantity: 6}}, decode[[]model.TopSeller](t, resp))

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/low-stock", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	low := decode[[]model.LowStockItem](t, resp)
	require.Len(t, low, 2, "Widget has 4 and Gadget 3, both <= 5")

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/low-stock?threshold=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.LowStockItem](t, resp), 1)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/low-stock?threshold=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/top?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[model.Dashboard](t, resp)
	assert.Len(t, d.Monthly, 1)
	assert.Len(t, d.TopSellers, 1)
	assert.Len(t, d.LowStock, 2)
}

func TestRequestIDAndMetrics(t *testing.T) {
	server := setupTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/items", nil)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp = doJSON(t, http.MethodGet, server.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `blagajna_http_requests_total{method="GET",route="/api/items",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t, rate.NewLimiter(rate.Limit(0.001), 1))

	resp := doJSON(t, http.MethodPost, server.URL+"/api/items", map[string]any{"name": "A", "quantity": 1, "price": "1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/items", map[string]any{"name": "B", "quantity": 1, "price": "1"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Reads are not limited.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/items", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&model.ValidationError{Field: "name", Reason: "must not be empty"}, http.StatusBadRequest},
		{model.ErrInvalidQuantity, http.StatusBadRequest},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrInsufficientStock, http.StatusConflict},
		{model.ErrTransientStore, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("down") }

func TestHealthzUnavailable(t *testing.T) {
	logger := zaptest.NewLogger(t)
	router := NewRouter(Deps{
		DB:       failingPinger{},
		Logger:   logger,
		Metrics:  telemetry.NewMetrics(prometheus.NewRegistry()),
		Gatherer: prometheus.NewRegistry(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "database unavailable"))
}
