// server/internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"equipment-requests-api-server/internal/auth"
	"equipment-requests-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Authenticate validates the bearer JWT and puts the caller's SessionContext
// into the gin context. siteURL is the list store every session talks to.
func Authenticate(issuer *auth.TokenIssuer, siteURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(sessionKey, SessionFromClaims(claims, siteURL))
		c.Set("user_id", claims.Subject)
		c.Set("user_role", string(claims.Role))

		c.Next()
	}
}

// SessionFromClaims builds the store identity for a verified token.
func SessionFromClaims(claims *auth.JWTClaims, siteURL string) models.SessionContext {
	return models.SessionContext{
		UserID:      claims.SharePointUserID,
		DisplayName: claims.Name,
		Role:        claims.Role,
		SiteURL:     siteURL,
	}
}

// Session returns the SessionContext set by Authenticate.
func Session(c *gin.Context) (models.SessionContext, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.SessionContext{}, false
	}
	sess, ok := v.(models.SessionContext)
	return sess, ok
}

// Authorize lets the request through only for the listed roles.
func Authorize(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := Session(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User session not found in context"})
			return
		}

		for _, role := range allowedRoles {
			if role == sess.Role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}
