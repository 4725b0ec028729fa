package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/domain/entity"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) outbound.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, stock, kind, featured, created_at, updated_at, deleted_at`

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
	`, productColumns)

	var product entity.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Kind,
		&product.Featured,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) List(ctx context.Context, kind string, offset, limit int) ([]*entity.Product, int, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE kind = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, kind, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE kind = $1 AND deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]*entity.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE featured = TRUE AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT $1
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, stock, kind, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Kind,
		product.Featured,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, kind = $6, featured = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Kind,
		product.Featured,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return requireProductRow(result)
}

func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE products
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireProductRow(result)
}

func scanProducts(rows *sql.Rows) ([]*entity.Product, error) {
	products := make([]*entity.Product, 0)
	for rows.Next() {
		var product entity.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Stock,
			&product.Kind,
			&product.Featured,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

func requireProductRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return outbound.ErrProductNotFound
	}
	return nil
}
