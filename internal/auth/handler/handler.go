// Package handler exposes the credential endpoints: register, login, logout.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradepost/internal/auth/gate"
	"tradepost/internal/auth/service"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/httputil"
	"tradepost/pkg/platform/validate"
	"tradepost/pkg/requestcontext"
)

// Service is the slice of the auth service the endpoints need.
type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Logout(ctx context.Context, principal id.Principal, tokenString string) error
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts the auth routes. Register and login are public; logout
// requires a live session so there is a token to revoke.
func (h *Handler) Register(r chi.Router, g *gate.Gate) {
	r.With(g.Middleware(gate.Public())).Post("/auth/register", h.handleRegister)
	r.With(g.Middleware(gate.Public())).Post("/auth/login", h.handleLogin)
	r.With(g.Middleware(gate.AnyAuthenticated())).Post("/auth/logout", h.handleLogout)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

func (r registerRequest) Validate() error { return validate.Struct(r) }

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r loginRequest) Validate() error { return validate.Struct(r) }

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	input := service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     id.Role(req.Role),
	}
	session, err := h.auth.Register(ctx, input)
	if err != nil {
		h.writeServiceError(w, r, "registration failed", err)
		return
	}

	setSessionCookie(w, session)
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login failed", err)
		return
	}

	setSessionCookie(w, session)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		// Unreachable behind AnyAuthenticated; guard against wiring mistakes.
		h.logger.ErrorContext(ctx, "principal missing despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	if err := h.auth.Logout(ctx, principal, gate.TokenFromRequest(r)); err != nil {
		h.writeServiceError(w, r, "logout failed", err)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func setSessionCookie(w http.ResponseWriter, session *service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
