package postgres

import (
	"context"
	"database/sql"

	"github.com/factusapp/factusapp/internal/domain/product"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
)

type productRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
	INSERT INTO products (id, owner_id, code, name, category, price, tax_rate, tax_included, stock, stock_min, created_at, updated_at)
	VALUES (:id, :owner_id, :code, :name, :category, :price, :tax_rate, :tax_included, :stock, :stock_min, :created_at, :updated_at)
	`
	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	return wrapErr(err, "product", p.ID)
}

func (r *productRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id); err != nil {
		return nil, wrapErr(err, "product", id)
	}
	return &p, nil
}

// DecrementStock is a single conditional update so concurrent sales of the
// same product can never take stock below zero
func (r *productRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	query := `
	UPDATE products
	SET stock = stock - $2, updated_at = now()
	WHERE id = $1 AND stock >= $2
	RETURNING stock
	`
	var remaining int
	err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, id, qty).Scan(&remaining)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return wrapErr(err, "product", id)
	}

	// no row matched: either the product is gone or the stock is short
	p, getErr := r.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	return ierr.NewError("insufficient stock").
		WithHintf("Insufficient stock for %s: %d available, %d requested", p.Name, p.Stock, qty).
		WithReportableDetails(map[string]any{
			"product_id": id,
			"available":  p.Stock,
			"requested":  qty,
		}).
		Mark(ierr.ErrInsufficientStock)
}

func (r *productRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, wrapErr(err, "product", "")
	}
	return n, nil
}
