// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxIsStaff   = "is_staff"
	ctxClaims    = "token_claims"
)

// AuthMiddleware requires a valid access token
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// StaffMiddleware ensures the authenticated user is staff
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		if !IsStaffFromContext(c) {
			abortWithError(c, http.StatusForbidden, "forbidden", "Staff access required")
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates the request when a valid token is present
// and otherwise lets it through anonymously.
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserEmail, claims.Email)
	c.Set(ctxIsStaff, claims.IsStaff)
	c.Set(ctxClaims, claims)
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// IsStaffFromContext checks if user is staff from gin context
func IsStaffFromContext(c *gin.Context) bool {
	isStaff, exists := c.Get(ctxIsStaff)
	if !exists {
		return false
	}
	staff, _ := isStaff.(bool)
	return staff
}

// abortWithError writes the standard error body and stops the chain
func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   kind,
		"message": message,
	})
}
