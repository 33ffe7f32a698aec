package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	facade   AuthFacade
	validate *validator.Validate
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, v *validator.Validate) *AuthHandler {
	return &AuthHandler{facade: facade, validate: v}
}

// Register handles POST /api/user/register. Rejected credentials answer 400, a taken login 409.
func (h *AuthHandler) Register(c *gin.Context) {
	h.issue(c, h.facade.Register, http.StatusBadRequest)
}

// Login handles POST /api/user/login. Rejected credentials answer 401.
func (h *AuthHandler) Login(c *gin.Context) {
	h.issue(c, h.facade.Authenticate, http.StatusUnauthorized)
}

type credentialsFunc func(ctx context.Context, login, password string) (string, error)

func (h *AuthHandler) issue(c *gin.Context, fn credentialsFunc, rejected int) {
	var req dto.AuthRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	token, err := fn(c.Request.Context(), req.Login, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.AbortWithStatus(rejected)
		return
	default:
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token, TokenType: "Bearer"})
}
