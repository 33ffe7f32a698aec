package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

// SubscriptionHandler manages subscription endpoints.
type SubscriptionHandler struct {
	facade   SubscriptionFacade
	validate *validator.Validate
}

// NewSubscriptionHandler constructs SubscriptionHandler.
func NewSubscriptionHandler(facade SubscriptionFacade, v *validator.Validate) *SubscriptionHandler {
	return &SubscriptionHandler{facade: facade, validate: v}
}

// Subscribe handles POST /api/subscriptions.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}
	sub, err := h.facade.Subscribe(c.Request.Context(), CurrentUserID(c), model.PlanType(req.PlanType))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Mine handles GET /api/subscriptions/me. No active subscription yields 204.
func (h *SubscriptionHandler) Mine(c *gin.Context) {
	sub, err := h.facade.MySubscription(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if sub == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Get handles GET /api/subscriptions/:id.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.facade.Subscription(c.Request.Context(), c.Param("id"), CurrentUserID(c), CurrentRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Cancel handles POST /api/subscriptions/:id/cancel.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.facade.CancelSubscription(c.Request.Context(), c.Param("id"), CurrentUserID(c), CurrentRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
