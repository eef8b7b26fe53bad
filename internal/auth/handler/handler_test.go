package handler

//go:generate mockgen -source=handler.go -destination=mocks/auth-mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tradepost/internal/auth/gate"
	"tradepost/internal/auth/handler/mocks"
	"tradepost/internal/auth/principal"
	"tradepost/internal/auth/revocation"
	"tradepost/internal/auth/service"
	"tradepost/internal/auth/token"
	"tradepost/internal/platform/config"
	"tradepost/internal/user/models"
	"tradepost/internal/user/store"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
)

type handlerFixture struct {
	mockAuth *mocks.MockService
	codec    *token.Codec
	users    *store.InMemoryStore
	router   *chi.Mux
	now      time.Time
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &handlerFixture{
		mockAuth: mocks.NewMockService(ctrl),
		users:    store.NewInMemoryStore(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	logger := slog.New(slog.DiscardHandler)
	f.codec = token.NewCodec("handler-test-key", token.WithClock(clock))
	g := gate.New(f.codec, revocation.NewInMemoryStore(revocation.WithMemoryClock(clock)), principal.NewResolver(f.users), logger)

	f.router = chi.NewRouter()
	New(f.mockAuth, logger).Register(f.router, g)
	return f
}

func (f *handlerFixture) do(method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(r)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == gate.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestHandleRegister(t *testing.T) {
	f := newHandlerFixture(t)
	session := &service.Session{
		User:      models.UserDTO{ID: id.NewUserID().String(), Name: "New User", Email: "new@ex.ax", Role: "USER"},
		Token:     "signed-token",
		ExpiresAt: f.now.Add(config.TokenTTL),
	}
	f.mockAuth.EXPECT().
		Register(gomock.Any(), service.RegisterInput{Name: "New User", Email: "new@ex.ax", Password: "hunter22!", Role: id.RoleAdmin}).
		Return(session, nil)

	rec := f.do(http.MethodPost, "/auth/register",
		`{"name":"New User","email":"new@ex.ax","password":"hunter22!","role":"ADMIN"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Token string         `json:"token"`
		User  models.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, "new@ex.ax", body.User.Email)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.WithinDuration(t, session.ExpiresAt, cookie.Expires, time.Second)
}

func TestHandleRegisterValidation(t *testing.T) {
	f := newHandlerFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing email", `{"name":"New User","password":"hunter22!"}`},
		{"bad email", `{"name":"New User","email":"not-an-email","password":"hunter22!"}`},
		{"short password", `{"name":"New User","email":"new@ex.ax","password":"short"}`},
		{"unknown role", `{"name":"New User","email":"new@ex.ax","password":"hunter22!","role":"SUPERUSER"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// No service expectation: validation must reject first.
			rec := f.do(http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleRegisterConflict(t *testing.T) {
	f := newHandlerFixture(t)
	f.mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "email already registered"))

	rec := f.do(http.MethodPost, "/auth/register",
		`{"name":"New User","email":"new@ex.ax","password":"hunter22!"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleLogin(t *testing.T) {
	f := newHandlerFixture(t)
	session := &service.Session{
		User:      models.UserDTO{ID: id.NewUserID().String(), Email: "user1@ex.ax", Role: "USER"},
		Token:     "signed-token",
		ExpiresAt: f.now.Add(config.TokenTTL),
	}
	f.mockAuth.EXPECT().Login(gomock.Any(), "user1@ex.ax", "hunter22!").Return(session, nil)

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"user1@ex.ax","password":"hunter22!"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed-token", sessionCookie(t, rec).Value)
}

func TestHandleLoginRejected(t *testing.T) {
	f := newHandlerFixture(t)
	f.mockAuth.EXPECT().Login(gomock.Any(), "user1@ex.ax", "wrong-password").
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"user1@ex.ax","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid email or password", body["error_description"])
}

func TestHandleLogout(t *testing.T) {
	f := newHandlerFixture(t)
	user := &models.User{ID: id.NewUserID(), Email: "user1@ex.ax", Role: id.RoleUser}
	require.NoError(t, f.users.Create(context.Background(), user))
	signed, err := f.codec.Issue(user.Email, user.Role, f.now)
	require.NoError(t, err)

	f.mockAuth.EXPECT().Logout(gomock.Any(), user.Principal(), signed).Return(nil)

	rec := f.do(http.MethodPost, "/auth/logout", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: gate.CookieName, Value: signed})
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestHandleLogoutUnauthenticated(t *testing.T) {
	f := newHandlerFixture(t)

	// No token, no Logout call: the gate rejects before the handler runs.
	rec := f.do(http.MethodPost, "/auth/logout", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
