package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradepost/internal/product/models"
	id "tradepost/pkg/domain"
	"tradepost/pkg/platform/sentinel"
)

// PostgresStore persists products in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE products (
//	    id          UUID PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    description TEXT NOT NULL,
//	    price       NUMERIC(12,2) NOT NULL,
//	    owner_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed product store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const productColumns = `id, name, description, price, owner_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		product.ID.String(), product.Name, product.Description, product.Price,
		product.OwnerID.String(), product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID.String(),
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Product, error) {
	return s.queryMany(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Product, error) {
	return s.queryMany(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY name`,
		ownerID.String(),
	)
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		product.ID.String(), product.Name, product.Description, product.Price,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, productID id.ProductID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID.String())
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		product  models.Product
		rawID    string
		rawOwner string
	)
	if err := row.Scan(&rawID, &product.Name, &product.Description, &product.Price,
		&rawOwner, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return nil, err
	}
	productID, err := id.ParseProductID(rawID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseUserID(rawOwner)
	if err != nil {
		return nil, err
	}
	product.ID = productID
	product.OwnerID = ownerID
	return &product, nil
}
