package model

// JobKind tags a settlement job variant.
type JobKind string

const (
	JobPaymentApproved    JobKind = "payment-approved"
	JobPaymentRejected    JobKind = "payment-rejected"
	JobGenerateInvoicePDF JobKind = "generate-invoice-pdf"
)

// Job is a unit of deferred settlement work.
type Job struct {
	ID        string  `json:"id"`
	Kind      JobKind `json:"kind"`
	OrderID   string  `json:"order_id,omitempty"`
	InvoiceID string  `json:"invoice_id,omitempty"`
}

// PaymentApprovedJob builds the job enqueued after an approval commits.
func PaymentApprovedJob(orderID string) Job {
	return Job{Kind: JobPaymentApproved, OrderID: orderID}
}

// PaymentRejectedJob builds the job enqueued after a rejection commits.
func PaymentRejectedJob(orderID string) Job {
	return Job{Kind: JobPaymentRejected, OrderID: orderID}
}

// GenerateInvoicePDFJob builds the follow-up job for a stored invoice.
func GenerateInvoicePDFJob(invoiceID string) Job {
	return Job{Kind: JobGenerateInvoicePDF, InvoiceID: invoiceID}
}

// Key identifies the job's target independently of delivery.
func (j Job) Key() string {
	if j.Kind == JobGenerateInvoicePDF {
		return string(j.Kind) + ":" + j.InvoiceID
	}
	return string(j.Kind) + ":" + j.OrderID
}
