package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouncehire/rentals/internal/domain"
)

// CatalogRepository is the local implementation of the product catalog
// collaborator. The booking path only needs a name and a daily rate.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const query = `SELECT id, name, daily_rate_pence FROM products WHERE id = $1`

	var p domain.Product
	var row pgx.Row
	if tx := txFromContext(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, id)
	} else {
		row = r.pool.QueryRow(ctx, query, id)
	}

	if err := row.Scan(&p.ID, &p.Name, &p.DailyRate); err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p domain.Product) error {
	const stmt = `INSERT INTO products (id, name, daily_rate_pence) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, stmt, p.ID, p.Name, p.DailyRate); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}
