package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julieginest/prjCyberA3/internal/model"
)

// CreateProduct inserts a new product and populates its ID.
func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	now := nowUTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const q = `INSERT INTO products
		(name, description, price_cents, image_path, bestseller, created_at, updated_at)
		VALUES
		(:name, :description, :price_cents, :image_path, :bestseller, :created_at, :updated_at)`

	id, err := s.insertID(ctx, q, p)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = id
	return nil
}

// GetProduct returns a product by ID.
func (s *Store) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := s.db.GetContext(ctx, &p, s.rebind("SELECT * FROM products WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct updates an existing product and refreshes UpdatedAt.
func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = nowUTC()

	const q = `UPDATE products SET
		name = :name, description = :description, price_cents = :price_cents,
		image_path = :image_path, bestseller = :bestseller, updated_at = :updated_at
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by ID.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM products WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
