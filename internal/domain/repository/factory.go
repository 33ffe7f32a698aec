package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Orders() OrderRepository
	Invoices() InvoiceRepository
	Subscriptions() SubscriptionRepository
	Courses() CourseRepository
	Enrollments() EnrollmentRepository
	Notifications() NotificationRepository
}
