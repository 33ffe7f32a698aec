package model

// Notification types produced by settlement.
const (
	NotificationPaymentApproved = "payment_approved"
	NotificationPaymentRejected = "payment_rejected"
)

// Notification is an in-app message delivered to a user.
type Notification struct {
	Type    string
	Title   string
	Message string
	Data    map[string]string
}
