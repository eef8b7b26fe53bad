package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tradepost/internal/product/models"
	id "tradepost/pkg/domain"
	"tradepost/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func testProduct(name string, owner id.UserID) *models.Product {
	now := time.Now()
	return &models.Product{
		ID:          id.NewProductID(),
		Name:        name,
		Description: "A fine item",
		Price:       19.99,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	product := testProduct("Widget", id.NewUserID())

	require.NoError(s.T(), s.store.Create(ctx, product))

	found, err := s.store.FindByID(ctx, product.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Widget", found.Name)

	_, err = s.store.FindByID(ctx, id.NewProductID())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestCopySemantics() {
	ctx := context.Background()
	product := testProduct("Widget", id.NewUserID())
	require.NoError(s.T(), s.store.Create(ctx, product))

	// Mutating the caller's struct after Create must not leak into the store.
	product.Price = 0

	found, err := s.store.FindByID(ctx, product.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 19.99, found.Price)

	// Mutating a returned struct must not leak either.
	found.Name = "Tampered"
	again, err := s.store.FindByID(ctx, product.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Widget", again.Name)
}

func (s *InMemoryStoreSuite) TestListOrdersByName() {
	ctx := context.Background()
	owner := id.NewUserID()
	require.NoError(s.T(), s.store.Create(ctx, testProduct("Zither", owner)))
	require.NoError(s.T(), s.store.Create(ctx, testProduct("Anvil", owner)))
	require.NoError(s.T(), s.store.Create(ctx, testProduct("Mallet", id.NewUserID())))

	all, err := s.store.List(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), "Anvil", all[0].Name)
	assert.Equal(s.T(), "Zither", all[2].Name)

	mine, err := s.store.ListByOwner(ctx, owner)
	require.NoError(s.T(), err)
	require.Len(s.T(), mine, 2)
	assert.Equal(s.T(), "Anvil", mine[0].Name)
	assert.Equal(s.T(), "Zither", mine[1].Name)
}

func (s *InMemoryStoreSuite) TestUpdate() {
	ctx := context.Background()
	product := testProduct("Widget", id.NewUserID())
	require.NoError(s.T(), s.store.Create(ctx, product))

	product.Price = 24.99
	require.NoError(s.T(), s.store.Update(ctx, product))

	found, err := s.store.FindByID(ctx, product.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 24.99, found.Price)

	ghost := testProduct("Ghost", id.NewUserID())
	assert.ErrorIs(s.T(), s.store.Update(ctx, ghost), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDelete() {
	ctx := context.Background()
	product := testProduct("Widget", id.NewUserID())
	require.NoError(s.T(), s.store.Create(ctx, product))

	require.NoError(s.T(), s.store.Delete(ctx, product.ID))
	assert.ErrorIs(s.T(), s.store.Delete(ctx, product.ID), sentinel.ErrNotFound)
}
