package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

const proofFormField = "proof"

// OrderHandler manages buyer order endpoints.
type OrderHandler struct {
	facade   OrderFacade
	validate *validator.Validate
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade, v *validator.Validate) *OrderHandler {
	return &OrderHandler{facade: facade, validate: v}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentUserID(c), req.CourseID, req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.GetOrder(c.Request.Context(), c.Param("id"), CurrentUserID(c), CurrentRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UploadProof handles POST /api/orders/:id/proof.
func (h *OrderHandler) UploadProof(c *gin.Context) {
	header, err := c.FormFile(proofFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file is unreadable"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file is unreadable"})
		return
	}
	if len(data) == 0 {
		writeError(c, domainErrors.ErrInvalidArgument)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	order, err := h.facade.UploadProof(c.Request.Context(), c.Param("id"), CurrentUserID(c), header.Filename, contentType, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
