// Package store persists product listings. Implementations return sentinel
// errors; domain error codes are assigned by the service layer.
package store

import (
	"context"

	"tradepost/internal/product/models"
	id "tradepost/pkg/domain"
)

// Store is the product persistence contract.
//
// List and ListByOwner order by name for stable pagination-free output.
// FindByID returns sentinel.ErrNotFound for unknown IDs.
type Store interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, productID id.ProductID) error
}
