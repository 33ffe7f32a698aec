package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

// AdminHandler serves payment review endpoints.
type AdminHandler struct {
	facade   OrderFacade
	validate *validator.Validate
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade OrderFacade, v *validator.Validate) *AdminHandler {
	return &AdminHandler{facade: facade, validate: v}
}

// List handles GET /api/admin/orders. Orders with an uploaded proof are listed by default.
func (h *AdminHandler) List(c *gin.Context) {
	var q dto.ListOrdersQuery
	if !bindQuery(c, h.validate, &q) {
		return
	}
	status := model.OrderStatusProcessing
	if q.Status != "" {
		status = model.OrderStatus(q.Status)
	}

	orders, err := h.facade.OrdersByStatus(c.Request.Context(), status, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []model.OrderView{}
	}
	c.JSON(http.StatusOK, orders)
}

// Approve handles POST /api/admin/orders/:id/approve. The body is optional.
func (h *AdminHandler) Approve(c *gin.Context) {
	var req dto.ApproveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validate(c, h.validate, &req) {
		return
	}

	order, err := h.facade.ApproveOrder(c.Request.Context(), c.Param("id"), req.AdminNote)
	h.settled(c, order, err)
}

// Reject handles POST /api/admin/orders/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	var req dto.RejectOrderRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	order, err := h.facade.RejectOrder(c.Request.Context(), c.Param("id"), req.AdminNote)
	h.settled(c, order, err)
}

// Resettle handles POST /api/admin/orders/:id/resettle.
func (h *AdminHandler) Resettle(c *gin.Context) {
	order, err := h.facade.ResettleOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, order)
}

// settled answers 202 when the transition committed but its settlement job was not queued.
func (h *AdminHandler) settled(c *gin.Context, order *model.OrderView, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, order)
	case order != nil && errors.Is(err, domainErrors.ErrJobNotQueued):
		_ = c.Error(err)
		c.JSON(http.StatusAccepted, order)
	default:
		writeError(c, err)
	}
}
