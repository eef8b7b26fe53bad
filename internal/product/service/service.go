// Package service implements listing management. Reads are open to anyone;
// mutations require the owner or an admin, checked here against the resolved
// principal, never against claims a client could forge.
package service

import (
	"context"
	"errors"
	"log/slog"

	"tradepost/internal/audit"
	"tradepost/internal/product/models"
	"tradepost/internal/product/store"
	usermodels "tradepost/internal/user/models"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
	"tradepost/pkg/requestcontext"
)

// OwnerDirectory resolves owner IDs to accounts for display. The wire format
// shows owner emails, not internal IDs.
type OwnerDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// AuditEmitter queues an audit event for background delivery.
type AuditEmitter interface {
	Emit(event audit.Event)
}

type Service struct {
	products store.Store
	owners   OwnerDirectory
	auditor  AuditEmitter
	logger   *slog.Logger
}

func New(products store.Store, owners OwnerDirectory, auditor AuditEmitter, logger *slog.Logger) *Service {
	return &Service{products: products, owners: owners, auditor: auditor, logger: logger}
}

// Input carries the mutable listing fields for create and update.
type Input struct {
	Name        string
	Description string
	Price       float64
}

// List returns every listing, ordered by name.
func (s *Service) List(ctx context.Context) ([]models.ProductDTO, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return s.toDTOs(ctx, products), nil
}

// ListByOwner returns the listings owned by the given account.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.UserID) ([]models.ProductDTO, error) {
	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return s.toDTOs(ctx, products), nil
}

// Get returns one listing by ID.
func (s *Service) Get(ctx context.Context, productID id.ProductID) (models.ProductDTO, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ProductDTO{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return models.ProductDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	return s.toDTO(ctx, product), nil
}

// Create adds a listing owned by the calling principal.
func (s *Service) Create(ctx context.Context, actor id.Principal, input Input) (models.ProductDTO, error) {
	now := requestcontext.Now(ctx)
	product := &models.Product{
		ID:          id.NewProductID(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		OwnerID:     actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return models.ProductDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionProductCreated,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: product.ID.String(),
	}.Enrich(ctx))
	return product.DTO(actor.Email), nil
}

// Update modifies a listing. Only the owner or an admin may do so; ownership
// itself never changes.
func (s *Service) Update(ctx context.Context, actor id.Principal, productID id.ProductID, input Input) (models.ProductDTO, error) {
	product, err := s.load(ctx, actor, productID)
	if err != nil {
		return models.ProductDTO{}, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.UpdatedAt = requestcontext.Now(ctx)

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ProductDTO{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return models.ProductDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update product")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionProductUpdated,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: product.ID.String(),
	}.Enrich(ctx))
	return s.toDTO(ctx, product), nil
}

// Delete removes a listing, owner-or-admin only.
func (s *Service) Delete(ctx context.Context, actor id.Principal, productID id.ProductID) error {
	if _, err := s.load(ctx, actor, productID); err != nil {
		return err
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete product")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionProductDeleted,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: productID.String(),
	}.Enrich(ctx))
	return nil
}

// load fetches a listing and enforces the modify permission.
func (s *Service) load(ctx context.Context, actor id.Principal, productID id.ProductID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	if !actor.IsAdmin() && product.OwnerID != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the owner of this product")
	}
	return product, nil
}

func (s *Service) toDTOs(ctx context.Context, products []*models.Product) []models.ProductDTO {
	dtos := make([]models.ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, s.toDTO(ctx, p))
	}
	return dtos
}

func (s *Service) toDTO(ctx context.Context, product *models.Product) models.ProductDTO {
	owner, err := s.owners.FindByID(ctx, product.OwnerID)
	if err != nil {
		// Owner deleted after listing; keep the product visible.
		return product.DTO("unknown")
	}
	return product.DTO(owner.Email)
}
