package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing document issued once an order is paid.
type Invoice struct {
	ID            string
	OrderID       string
	InvoiceNumber string
	Amount        decimal.Decimal
	Currency      string
	PDFURL        *string
	CreatedAt     time.Time
}

// InvoicePDFPath returns the deterministic object key for an invoice document.
func InvoicePDFPath(invoiceID string) string {
	return "invoices/" + invoiceID + "/invoice.pdf"
}
