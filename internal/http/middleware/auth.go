package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classpulse/internal/auth"
	"classpulse/internal/domain"
	"classpulse/internal/http/dto"
	"classpulse/internal/http/resp"
)

const (
	ContextUserID = "user_id"
	ContextName   = "user_name"
	ContextRole   = "user_role"
)

func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "missing bearer token"})
			return
		}
		claims, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "invalid or expired token"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextName, claims.Name)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireSender gates the privileged notification paths; must run after
// RequireAuth.
func RequireSender() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !domain.CanSendNotifications(c.GetString(ContextRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.ErrorResponse{Code: resp.CodeForbidden, Message: "insufficient role"})
			return
		}
		c.Next()
	}
}
