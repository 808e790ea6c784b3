package postgres

import (
	"context"
	"time"

	"github.com/factusapp/factusapp/internal/domain/user"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, name, email, plan, monthly_invoice_count, last_invoice_reset_date, created_at, updated_at)
	VALUES (:id, :name, :email, :plan, :monthly_invoice_count, :last_invoice_reset_date, :created_at, :updated_at)
	`
	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, u)
	return wrapErr(err, "user", u.ID)
}

// Get locks the row with FOR UPDATE when called inside a transaction so
// quota checks and increments of one user are serialized
func (r *userRepository) Get(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT * FROM users WHERE id = $1`
	if postgres.InTx(ctx) {
		query += ` FOR UPDATE`
	}

	var u user.User
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &u, query, id); err != nil {
		return nil, wrapErr(err, "user", id)
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()
	query := `
	UPDATE users SET
		name = :name,
		email = :email,
		plan = :plan,
		monthly_invoice_count = :monthly_invoice_count,
		last_invoice_reset_date = :last_invoice_reset_date,
		updated_at = :updated_at
	WHERE id = :id
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, u)
	if err != nil {
		return wrapErr(err, "user", u.ID)
	}
	return requireAffected(res, "user", u.ID)
}

func (r *userRepository) IncrementMonthlyInvoiceCount(ctx context.Context, id string) error {
	query := `
	UPDATE users
	SET monthly_invoice_count = monthly_invoice_count + 1, updated_at = now()
	WHERE id = $1
	`
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return wrapErr(err, "user", id)
	}
	return requireAffected(res, "user", id)
}

func (r *userRepository) ResetMonthlyInvoiceCounts(ctx context.Context, before time.Time) (int, error) {
	query := `
	UPDATE users
	SET monthly_invoice_count = 0, last_invoice_reset_date = now(), updated_at = now()
	WHERE last_invoice_reset_date IS NULL OR last_invoice_reset_date < $1
	`
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, wrapErr(err, "user", "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err, "user", "")
	}
	r.logger.Infow("reset monthly invoice counters", "users", n, "before", before)
	return int(n), nil
}
