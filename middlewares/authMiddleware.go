package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"civix-be/models"
	authUtils "civix-be/utils"
)

// Context keys set by the auth middleware for downstream handlers.
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
)

// AuthMiddleware resolves the caller from the Authorization header and
// aborts with 401 when the bearer token is missing or invalid. Claims are
// trusted as issued; handlers that need the full account record read it
// from the store themselves.
func AuthMiddleware(tokens *authUtils.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid bearer token is present but
// lets anonymous requests through. Used by the public issue listing.
func OptionalAuth(tokens *authUtils.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := tokens.Verify(tokenString); err == nil {
				c.Set(UserIDKey, claims.Subject)
				c.Set(UserRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole gates a route to the given roles. Runs after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		callerRole, _ := role.(models.Role)
		for _, allowed := range roles {
			if callerRole == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len("Bearer "):])
	return token, token != ""
}
