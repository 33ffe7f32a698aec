package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const invoiceColumns = `id, order_id, invoice_number, amount, currency, pdf_url, created_at`

type invoiceRepository struct {
	storage *Storage
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var inv model.Invoice
	if err := row.Scan(&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &inv.Amount, &inv.Currency, &inv.PDFURL, &inv.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	const query = `INSERT INTO invoices (id, order_id, invoice_number, amount, currency)
                   VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.storage.pool.QueryRow(ctx, query, invoice.ID, invoice.OrderID, invoice.InvoiceNumber,
		invoice.Amount, invoice.Currency).Scan(&invoice.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == constraintInvoiceNumber {
				return domainErrors.ErrInvoiceNumberConflict
			}
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id=$1`
	return scanInvoice(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *invoiceRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE order_id=$1`
	return scanInvoice(r.storage.pool.QueryRow(ctx, query, orderID))
}

func (r *invoiceRepository) SetPDFURL(ctx context.Context, id, url string) error {
	const query = `UPDATE invoices SET pdf_url=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
