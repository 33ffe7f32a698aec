package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serve runs req through a fresh engine with mw in front of handler.
func serve(t *testing.T, req *http.Request, handler gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	engine := gin.New()
	engine.Use(mw...)
	engine.Any("/", handler)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func readBody(into *string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		*into = string(data)
		c.Status(http.StatusOK)
	}
}
