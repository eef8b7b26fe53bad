package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tradepost/internal/product/models"
	id "tradepost/pkg/domain"
	"tradepost/pkg/platform/sentinel"
)

// InMemoryStore keeps products in a map. Used in tests and single-process
// deployments without a database.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{products: make(map[id.ProductID]*models.Product)}
}

func (s *InMemoryStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; ok {
		return fmt.Errorf("product already exists: %w", sentinel.ErrConflict)
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	cp := *product
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Product) bool { return true }), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p *models.Product) bool { return p.OwnerID == ownerID }), nil
}

func (s *InMemoryStore) collect(keep func(*models.Product) bool) []*models.Product {
	out := make([]*models.Product, 0, len(s.products))
	for _, product := range s.products {
		if keep(product) {
			cp := *product
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *InMemoryStore) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	delete(s.products, productID)
	return nil
}
