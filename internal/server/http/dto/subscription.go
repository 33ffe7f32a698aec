package dto

// SubscribeRequest starts a subscription on a plan.
type SubscribeRequest struct {
	PlanType string `json:"plan_type" validate:"required,plan"`
}
