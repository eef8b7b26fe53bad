// Package handler exposes account management endpoints. Admin CRUD lives
// under /users; /users/me serves the authenticated caller.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradepost/internal/auth/gate"
	"tradepost/internal/user/models"
	"tradepost/internal/user/service"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/httputil"
	"tradepost/pkg/platform/validate"
	"tradepost/pkg/requestcontext"
)

// Service is the slice of the user service the endpoints need.
type Service interface {
	List(ctx context.Context) ([]models.UserDTO, error)
	Get(ctx context.Context, userID id.UserID) (models.UserDTO, error)
	Create(ctx context.Context, actor id.Principal, input service.CreateInput) (models.UserDTO, error)
	Update(ctx context.Context, actor id.Principal, userID id.UserID, input service.UpdateInput) (models.UserDTO, error)
	Delete(ctx context.Context, actor id.Principal, userID id.UserID) error
}

type Handler struct {
	users  Service
	logger *slog.Logger
}

func New(users Service, logger *slog.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// Register mounts the user routes. Collection operations are admin-only;
// profile routes take any authenticated principal, with the self-or-admin
// rule enforced in the service.
func (h *Handler) Register(r chi.Router, g *gate.Gate) {
	admin := g.Middleware(gate.RoleExactly(id.RoleAdmin))
	authed := g.Middleware(gate.AnyAuthenticated())

	r.With(admin).Get("/users", h.handleList)
	r.With(admin).Post("/users", h.handleCreate)
	r.With(authed).Get("/users/me", h.handleGetMe)
	r.With(authed).Delete("/users/me", h.handleDeleteMe)
	r.With(admin).Get("/users/{id}", h.handleGet)
	r.With(authed).Put("/users/{id}", h.handleUpdate)
	r.With(admin).Delete("/users/{id}", h.handleDelete)
}

type createRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=ADMIN USER"`
}

func (r createRequest) Validate() error { return validate.Struct(r) }

type updateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

func (r updateRequest) Validate() error { return validate.Struct(r) }

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	dto, err := h.users.Create(ctx, actor, service.CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     id.Role(req.Role),
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to create user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dto)
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	dto, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), actor, actor.ID); err != nil {
		h.writeServiceError(w, r, "failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	dto, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	input := service.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := id.Role(*req.Role)
		input.Role = &role
	}
	dto, err := h.users.Update(ctx, actor, userID, input)
	if err != nil {
		h.writeServiceError(w, r, "failed to update user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), actor, userID); err != nil {
		h.writeServiceError(w, r, "failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (id.Principal, bool) {
	p, ok := requestcontext.Principal(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "principal missing despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.Principal{}, false
	}
	return p, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return userID, true
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
