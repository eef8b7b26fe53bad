package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tradepost/internal/audit"
	"tradepost/internal/auth/gate"
	authhandler "tradepost/internal/auth/handler"
	"tradepost/internal/auth/principal"
	"tradepost/internal/auth/revocation"
	"tradepost/internal/auth/secrets"
	authservice "tradepost/internal/auth/service"
	"tradepost/internal/auth/token"
	producthandler "tradepost/internal/product/handler"
	productservice "tradepost/internal/product/service"
	productstore "tradepost/internal/product/store"
	userhandler "tradepost/internal/user/handler"
	userservice "tradepost/internal/user/service"
	userstore "tradepost/internal/user/store"
)

// newApp wires the full stack on in-memory stores, the way main does, so the
// test drives real tokens through real middleware.
func newApp(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	users := userstore.NewInMemoryStore()
	products := productstore.NewInMemoryStore()
	revocations := revocation.NewInMemoryStore()
	codec := token.NewCodec("router-test-signing-key")
	hasher := secrets.NewHasher(bcrypt.MinCost)
	auditor := audit.NewWorker(64, logger, audit.NewLogSink(logger))

	g := gate.New(codec, revocations, principal.NewResolver(users), logger)
	handlers := Handlers{
		Auth:     authhandler.New(authservice.New(users, hasher, codec, revocations, auditor, logger), logger),
		Users:    userhandler.New(userservice.New(users, hasher, auditor, logger), logger),
		Products: producthandler.New(productservice.New(products, users, auditor, logger), logger),
	}
	return NewRouter(handlers, g)
}

type client struct {
	t   *testing.T
	app http.Handler
}

func (c *client) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c.app.ServeHTTP(rec, r)
	return rec
}

func (c *client) token(rec *httptest.ResponseRecorder) string {
	c.t.Helper()
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(c.t, body.Token)
	return body.Token
}

func TestFullSessionLifecycle(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	// Register and receive a session token.
	rec := c.do(http.MethodPost, "/auth/register", "",
		`{"name":"New User","email":"new@ex.ax","password":"hunter22!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	registered := c.token(rec)

	// The token opens protected routes.
	rec = c.do(http.MethodGet, "/users/me", registered, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@ex.ax")

	// Logging in issues a second, independent token.
	rec = c.do(http.MethodPost, "/auth/login", "", `{"email":"new@ex.ax","password":"hunter22!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	loggedIn := c.token(rec)

	// Logout revokes only the presented token.
	require.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/auth/logout", registered, "").Code)

	rec = c.do(http.MethodGet, "/users/me", registered, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token has been revoked")

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/me", loggedIn, "").Code)
}

func TestSelfRegisteredAdminIsDowngraded(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	rec := c.do(http.MethodPost, "/auth/register", "",
		`{"name":"Eve","email":"eve@ex.ax","password":"hunter22!","role":"ADMIN"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The fresh token does not open admin routes.
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/users", c.token(rec), "").Code)
}

func TestPublicBrowsingAndOwnership(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	rec := c.do(http.MethodPost, "/auth/register", "",
		`{"name":"Seller","email":"seller@ex.ax","password":"hunter22!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	seller := c.token(rec)

	rec = c.do(http.MethodPost, "/products", seller,
		`{"name":"Widget","description":"A fine item","price":19.99}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Anonymous browsing sees the listing with the owner's email.
	rec = c.do(http.MethodGet, "/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seller@ex.ax")

	// A different account cannot modify it.
	rec = c.do(http.MethodPost, "/auth/register", "",
		`{"name":"Rival","email":"rival@ex.ax","password":"hunter22!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rival := c.token(rec)

	var listings []struct {
		ID string `json:"id"`
	}
	rec = c.do(http.MethodGet, "/products", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	require.Len(t, listings, 1)

	rec = c.do(http.MethodDelete, "/products/"+listings[0].ID, rival, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	rec := c.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = c.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tradepost_")
}

func TestHealthReportsBackends(t *testing.T) {
	healthy := HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	failing := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	rec := httptest.NewRecorder()
	handleHealth([]HealthCheck{healthy})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","postgres":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handleHealth([]HealthCheck{healthy, failing})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","postgres":"ok","redis":"unavailable"}`, rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	c := &client{t: t, app: newApp(t)}

	rec := c.do(http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("X-Request-ID", "req-upstream-7")
	echo := httptest.NewRecorder()
	c.app.ServeHTTP(echo, r)
	assert.Equal(t, "req-upstream-7", echo.Header().Get("X-Request-ID"))
}
