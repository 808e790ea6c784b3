package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/factusapp/factusapp/internal/domain/invoice"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

const insertInvoiceQuery = `
INSERT INTO invoices (
	id, owner_id, customer_id, invoice_number, status, payment_method, notes, issue_date, due_date,
	subtotal, tax_amount, total, external_id, external_number, cufe, qr_code, pdf_url, xml_url,
	external_status, authority_status, version, created_at, updated_at
) VALUES (
	:id, :owner_id, :customer_id, :invoice_number, :status, :payment_method, :notes, :issue_date, :due_date,
	:subtotal, :tax_amount, :total, :external_id, :external_number, :cufe, :qr_code, :pdf_url, :xml_url,
	:external_status, :authority_status, :version, :created_at, :updated_at
)`

const insertItemQuery = `
INSERT INTO invoice_items (
	id, invoice_id, product_id, product_code, product_name, quantity, unit_price, tax_rate, tax_included,
	subtotal, tax_amount, total, position
) VALUES (
	:id, :invoice_id, :product_id, :product_code, :product_name, :quantity, :unit_price, :tax_rate, :tax_included,
	:subtotal, :tax_amount, :total, :position
)`

// Create inserts the header and items atomically
func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv.Version == 0 {
		inv.Version = 1
	}
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)
		if _, err := q.NamedExecContext(ctx, insertInvoiceQuery, inv); err != nil {
			return wrapErr(err, "invoice", inv.ID)
		}
		for _, item := range inv.Items {
			item.InvoiceID = inv.ID
			if _, err := q.NamedExecContext(ctx, insertItemQuery, item); err != nil {
				return wrapErr(err, "invoice_item", item.ID)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, `SELECT * FROM invoices WHERE id = $1`, id); err != nil {
		return nil, wrapErr(err, "invoice", id)
	}

	items, err := r.itemsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	inv.Items = items[id]
	return &inv, nil
}

// Update writes the header only. Items never change after creation.
func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	query := `
	UPDATE invoices SET
		customer_id = :customer_id,
		status = :status,
		payment_method = :payment_method,
		notes = :notes,
		due_date = :due_date,
		subtotal = :subtotal,
		tax_amount = :tax_amount,
		total = :total,
		external_id = :external_id,
		external_number = :external_number,
		cufe = :cufe,
		qr_code = :qr_code,
		pdf_url = :pdf_url,
		xml_url = :xml_url,
		external_status = :external_status,
		authority_status = :authority_status,
		version = version + 1,
		updated_at = :updated_at
	WHERE id = :id AND version = :version
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, inv)
	if err != nil {
		return wrapErr(err, "invoice", inv.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, "invoice", inv.ID)
	}
	if n == 0 {
		if _, getErr := r.Get(ctx, inv.ID); getErr != nil {
			return getErr
		}
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice was changed by another request, reload it and try again").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID, "version": inv.Version}).
			Mark(ierr.ErrVersionConflict)
	}
	inv.Version++
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "invoice", id)
	}
	return requireAffected(res, "invoice", id)
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	where, args, err := r.whereClause(filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM invoices` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.GetLimit(), filter.GetOffset())

	var invoices []*invoice.Invoice
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, r.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err, "invoice", "")
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	items, err := r.itemsFor(ctx, lo.Map(invoices, func(inv *invoice.Invoice, _ int) string { return inv.ID }))
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		inv.Items = items[inv.ID]
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	where, args, err := r.whereClause(filter)
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM invoices`+where), args...); err != nil {
		return 0, wrapErr(err, "invoice", "")
	}
	return n, nil
}

// whereClause builds a bindvar-neutral condition; callers Rebind the final query
func (r *invoiceRepository) whereClause(filter *types.InvoiceFilter) (string, []interface{}, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.CustomerID != "" {
		conds = append(conds, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if len(filter.Status) > 0 {
		in, inArgs, err := sqlx.In("status IN (?)", lo.Map(filter.Status, func(s types.InvoiceStatus, _ int) string {
			return string(s)
		}))
		if err != nil {
			return "", nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		conds = append(conds, in)
		args = append(args, inArgs...)
	}
	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (r *invoiceRepository) itemsFor(ctx context.Context, invoiceIDs []string) (map[string][]*invoice.InvoiceItem, error) {
	query, args, err := sqlx.In(`SELECT * FROM invoice_items WHERE invoice_id IN (?) ORDER BY invoice_id, position`, invoiceIDs)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var items []*invoice.InvoiceItem
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err, "invoice_item", "")
	}
	return lo.GroupBy(items, func(item *invoice.InvoiceItem) string { return item.InvoiceID }), nil
}
