package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// ContentType is the MIME type of rendered documents.
const ContentType = "application/pdf"

// InvoiceDocument carries everything printed on an invoice.
type InvoiceDocument struct {
	Invoice     model.Invoice
	BuyerLogin  string
	CourseTitle string
	PaidAt      time.Time
}

// Renderer turns invoices into PDF bytes.
type Renderer interface {
	RenderInvoice(doc InvoiceDocument) ([]byte, error)
}

// FPDFRenderer renders A4 invoices with fpdf.
type FPDFRenderer struct {
	issuer string
}

// NewRenderer returns a renderer printing issuer in the header.
func NewRenderer() *FPDFRenderer {
	return &FPDFRenderer{issuer: "Coursemart"}
}

// RenderInvoice lays out a single-page invoice.
func (r *FPDFRenderer) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	inv := doc.Invoice
	f := fpdf.New("P", "mm", "A4", "")
	f.SetTitle("Invoice "+inv.InvoiceNumber, false)
	f.SetCreationDate(inv.CreatedAt)
	f.SetModificationDate(inv.CreatedAt)
	f.AddPage()

	f.SetFont("Helvetica", "B", 18)
	f.CellFormat(0, 10, r.issuer, "", 1, "L", false, 0, "")
	f.SetFont("Helvetica", "", 12)
	f.CellFormat(0, 8, "Invoice "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
	f.Ln(6)

	rows := [][2]string{
		{"Order", inv.OrderID},
		{"Billed to", doc.BuyerLogin},
		{"Course", doc.CourseTitle},
		{"Issued", inv.CreatedAt.UTC().Format("2006-01-02")},
	}
	if !doc.PaidAt.IsZero() {
		rows = append(rows, [2]string{"Paid", doc.PaidAt.UTC().Format("2006-01-02")})
	}
	for _, row := range rows {
		f.SetFont("Helvetica", "B", 11)
		f.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
		f.SetFont("Helvetica", "", 11)
		f.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}

	f.Ln(6)
	f.SetFont("Helvetica", "B", 12)
	f.CellFormat(40, 9, "Total", "T", 0, "L", false, 0, "")
	f.CellFormat(0, 9, inv.Amount.StringFixed(2)+" "+inv.Currency, "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
