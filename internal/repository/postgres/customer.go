package postgres

import (
	"context"

	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
	INSERT INTO customers (id, owner_id, document_type, document_number, name, address, city, email, phone, created_at, updated_at)
	VALUES (:id, :owner_id, :document_type, :document_number, :name, :address, :city, :email, :phone, :created_at, :updated_at)
	`
	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, c)
	return wrapErr(err, "customer", c.ID)
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, `SELECT * FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err, "customer", id)
	}
	return &c, nil
}
