package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cheesy-delights/internal/config"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/server"
)

func newTestServer(t *testing.T, driver string) (*httptest.Server, repository.Store) {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{
		"STORE_DRIVER": driver,
		"DATA_DIR":     t.TempDir(),
		"DB_PATH":      ":memory:",
		"BCRYPT_COST":  "4",
	})
	require.NoError(t, err)

	store, err := server.OpenStore(cfg.Store)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(cfg, server.Deps{
		Store:    store,
		Charger:  payment.Sandbox{},
		Notifier: notify.NewLogNotifier(logger),
	}, logger)
	require.NoError(t, err)
	require.NoError(t, srv.Prepare(context.Background()))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("token", c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

// TestEndToEnd walks a customer from signup to a delivered receipt against
// both store backends.
func TestEndToEnd(t *testing.T) {
	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ts, store := newTestServer(t, driver)
			c := &client{t: t, base: ts.URL}

			status, body := c.do(http.MethodPost, "/api/users", map[string]string{
				"firstName": "Ada", "lastName": "Lovelace", "email": "a@x.com",
				"address": "12 Analytical Row", "city": "London", "state": "LDN",
				"postalCode": "N1 9GU", "password": "secret123",
			})
			require.Equal(t, http.StatusOK, status, string(body))

			status, body = c.do(http.MethodPost, "/api/tokens", map[string]string{"email": "a@x.com", "password": "secret123"})
			require.Equal(t, http.StatusOK, status, string(body))
			var token model.Token
			decodeInto(t, body, &token)
			require.Len(t, token.ID, 20)
			c.token = token.ID

			status, body = c.do(http.MethodGet, "/api/menu", nil)
			require.Equal(t, http.StatusOK, status)
			var menu []model.MenuItem
			decodeInto(t, body, &menu)
			assert.Len(t, menu, 6)

			status, body = c.do(http.MethodPost, "/api/carts", map[string]any{
				"items": []map[string]any{{"itemId": "p001", "name": "Margherita", "size": "large", "price": 10, "qty": 2}},
			})
			require.Equal(t, http.StatusOK, status, string(body))
			var cart model.Cart
			decodeInto(t, body, &cart)
			assert.Equal(t, 20.0, cart.Total)

			checkout := map[string]any{
				"cartId": cart.ID, "cardName": "Ada Lovelace", "cardNumber": "424242424242424",
				"cardCvc": "123", "cardExpireMonth": 12, "cardExpireYear": 2030,
			}
			status, _ = c.do(http.MethodPost, "/api/orders", checkout)
			assert.Equal(t, http.StatusBadRequest, status, "15-digit card")

			checkout["cardNumber"] = "4242424242424242"
			status, body = c.do(http.MethodPost, "/api/orders", checkout)
			require.Equal(t, http.StatusOK, status, string(body))
			var order model.Order
			decodeInto(t, body, &order)
			assert.Equal(t, model.PaymentSucceeded, order.Payment)
			assert.Equal(t, model.ReceiptSent, order.Receipt)

			var user model.User
			require.NoError(t, store.Read(context.Background(), repository.Users, "a@x.com", &user))
			assert.Empty(t, user.CartID)
			assert.Equal(t, []string{order.ID}, user.Orders)

			status, _ = c.do(http.MethodPost, "/api/orders", checkout)
			assert.Equal(t, http.StatusConflict, status, "cart already checked out")
		})
	}
}

func TestRouting(t *testing.T) {
	ts, _ := newTestServer(t, config.DriverFile)
	c := &client{t: t, base: ts.URL}

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantKind   string
	}{
		{"ping", http.MethodGet, "/api/ping", http.StatusOK, ""},
		{"unknown route", http.MethodGet, "/api/pizzas", http.StatusNotFound, "not_found"},
		{"unknown top-level", http.MethodGet, "/nothing", http.StatusNotFound, "not_found"},
		{"unsupported verb", http.MethodDelete, "/api/menu", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"no order delete", http.MethodDelete, "/api/orders", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"profile without token", http.MethodGet, "/api/users?email=a@x.com", http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := c.do(tt.method, tt.path, nil)
			assert.Equal(t, tt.wantStatus, status, string(body))
			if tt.wantKind != "" {
				var resp struct{ Error string }
				decodeInto(t, body, &resp)
				assert.Equal(t, tt.wantKind, resp.Error)
			}
		})
	}
}

func TestDuplicateSignup(t *testing.T) {
	ts, _ := newTestServer(t, config.DriverSQLite)
	c := &client{t: t, base: ts.URL}
	user := map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": "a@x.com",
		"address": "1 Row", "city": "London", "state": "LDN",
		"postalCode": "N1", "password": "secret123",
	}

	status, _ := c.do(http.MethodPost, "/api/users", user)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodPost, "/api/users", user)
	assert.Equal(t, http.StatusConflict, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, config.DriverFile)
	c := &client{t: t, base: ts.URL}

	c.do(http.MethodGet, "/api/menu", nil)
	status, body := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `cheesy_http_requests_total{method="GET",route="/api/menu",status="200"} 1`)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := server.OpenStore(config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}
