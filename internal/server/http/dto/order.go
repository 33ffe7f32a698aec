package dto

// CreateOrderRequest opens an order for a course.
type CreateOrderRequest struct {
	CourseID      int64  `json:"course_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=32"`
}

// ApproveOrderRequest carries an optional note for the buyer.
type ApproveOrderRequest struct {
	AdminNote *string `json:"admin_note" validate:"omitempty,max=1000"`
}

// RejectOrderRequest requires the reason shown to the buyer.
type RejectOrderRequest struct {
	AdminNote string `json:"admin_note" validate:"required,notblank,max=1000"`
}

// ListOrdersQuery filters the administrator order list.
type ListOrdersQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending processing paid failed"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
