package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/pkg/lock"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentRole extracts the authenticated user's role from context.
func CurrentRole(c *gin.Context) model.Role {
	val, _ := c.Get(middleware.RoleContextKey)
	role, _ := val.(model.Role)
	return role
}

// NewValidator returns a validator aware of marketplace specific tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		return model.PlanType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// bindJSON decodes and validates the body, writing 400 on failure.
func bindJSON(c *gin.Context, v *validator.Validate, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return validate(c, v, out)
}

// bindQuery decodes and validates query parameters, writing 400 on failure.
func bindQuery(c *gin.Context, v *validator.Validate, out any) bool {
	if err := c.ShouldBindQuery(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return false
	}
	return validate(c, v, out)
}

func validate(c *gin.Context, v *validator.Validate, out any) bool {
	err := v.Struct(out)
	if err == nil {
		return true
	}
	fields := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	return false
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainErrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domainErrors.ErrInvalidState),
		errors.Is(err, domainErrors.ErrAlreadyExists),
		errors.Is(err, domainErrors.ErrAlreadyEnrolled):
		status = http.StatusConflict
	case errors.Is(err, domainErrors.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrCourseUnavailable),
		errors.Is(err, domainErrors.ErrFreeCourse):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrJobNotQueued):
		status = http.StatusServiceUnavailable
	case errors.Is(err, lock.ErrBusy):
		// The wrapped error names the lock key and the backend failure.
		c.JSON(http.StatusConflict, gin.H{"error": lock.ErrBusy.Error()})
		return
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
