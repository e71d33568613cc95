package delivery

import (
	"net/http"
	"strings"

	authdomain "studio-admin-backend/internal/auth/domain"
	"studio-admin-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid bearer ID token. The SSE endpoint may also pass
// it as ?access_token= since EventSource cannot set headers.
func AuthMiddleware(verifier usecase.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}
			token = parts[1]
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Request = c.Request.WithContext(authdomain.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// RequireAdmin rejects authenticated users without the admin claim. It must run
// after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := authdomain.UserFromContext(c.Request.Context())
		if user == nil || !user.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
