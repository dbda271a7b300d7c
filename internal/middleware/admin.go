package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/pkg/response"
)

// AdminTokenHeader carries the operator token
const AdminTokenHeader = "X-Admin-Token"

// AdminMiddleware admits requests presenting the configured operator token.
// An empty token disables the admin surface entirely.
func AdminMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		provided := c.GetHeader(AdminTokenHeader)
		if len(expected) == 0 || provided == "" {
			response.Fail(c, http.StatusForbidden, "forbidden", "admin token required")
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			response.Fail(c, http.StatusForbidden, "forbidden", "invalid admin token")
			c.Abort()
			return
		}
		c.Next()
	}
}
