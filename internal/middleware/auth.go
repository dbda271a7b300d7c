package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

// ContextKeyUserID holds the authenticated user's id
const ContextKeyUserID = "user_id"

const reasonUnauthorized = "unauthorized"

// AuthMiddleware rejects requests without a valid bearer access token and
// stores the token's user id on the context.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Fail(c, http.StatusUnauthorized, reasonUnauthorized, "missing or malformed bearer token")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, reasonUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer" value.
// The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID returns the authenticated user id, or 0 outside AuthMiddleware
func GetUserID(c *gin.Context) uint {
	id, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0
	}
	uid, _ := id.(uint)
	return uid
}
