// Package handler exposes the listing endpoints. Browsing is anonymous;
// creating and modifying listings requires a session.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradepost/internal/auth/gate"
	"tradepost/internal/product/models"
	"tradepost/internal/product/service"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/httputil"
	"tradepost/pkg/platform/validate"
	"tradepost/pkg/requestcontext"
)

// Service is the slice of the product service the endpoints need.
type Service interface {
	List(ctx context.Context) ([]models.ProductDTO, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]models.ProductDTO, error)
	Get(ctx context.Context, productID id.ProductID) (models.ProductDTO, error)
	Create(ctx context.Context, actor id.Principal, input service.Input) (models.ProductDTO, error)
	Update(ctx context.Context, actor id.Principal, productID id.ProductID, input service.Input) (models.ProductDTO, error)
	Delete(ctx context.Context, actor id.Principal, productID id.ProductID) error
}

type Handler struct {
	products Service
	logger   *slog.Logger
}

func New(products Service, logger *slog.Logger) *Handler {
	return &Handler{products: products, logger: logger}
}

// Register mounts the product routes. The reads are public even when the
// request carries a broken or stale token; the gate downgrades those to
// anonymous instead of rejecting.
func (h *Handler) Register(r chi.Router, g *gate.Gate) {
	public := g.Middleware(gate.Public())
	authed := g.Middleware(gate.AnyAuthenticated())

	r.With(public).Get("/products", h.handleList)
	r.With(authed).Get("/products/mine", h.handleListMine)
	r.With(public).Get("/products/{id}", h.handleGet)
	r.With(authed).Post("/products", h.handleCreate)
	r.With(authed).Put("/products/{id}", h.handleUpdate)
	r.With(authed).Delete("/products/{id}", h.handleDelete)
}

type productRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=50"`
	Description string  `json:"description" validate:"required,min=2,max=150"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

func (r productRequest) Validate() error { return validate.Struct(r) }

func (r productRequest) input() service.Input {
	return service.Input{Name: r.Name, Description: r.Description, Price: r.Price}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.products.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list products", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	dtos, err := h.products.ListByOwner(r.Context(), actor.ID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list products", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	dto, err := h.products.Get(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[productRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	dto, err := h.products.Create(ctx, actor, req.input())
	if err != nil {
		h.writeServiceError(w, r, "failed to create product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dto)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[productRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	dto, err := h.products.Update(ctx, actor, productID, req.input())
	if err != nil {
		h.writeServiceError(w, r, "failed to update product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), actor, productID); err != nil {
		h.writeServiceError(w, r, "failed to delete product", err)
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

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.ProductID, bool) {
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProductID{}, false
	}
	return productID, true
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
