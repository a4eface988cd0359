package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/backend/internal/infrastructure/auth"
	"github.com/stitchline/backend/internal/interfaces/http/dto"
)

// RequireRole aborts with 403 unless the authenticated caller holds one
// of the given roles. It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		role := GetJWTRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Insufficient role"))
			return
		}

		c.Next()
	}
}

// RequireAdmin restricts a route group to admin callers
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}
