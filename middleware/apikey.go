package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/auth"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func keyMatches(expected, given string) bool {
	return expected != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// ValidateAPIKey guards server-to-server endpoints.
func ValidateAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !keyMatches(apiKey, c.GetHeader("X-API-KEY")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}
		c.Next()
	}
}

// RequireAdmin lets a request through with a valid X-API-KEY or with a token
// whose role is admin.
func RequireAdmin(tokens *auth.Tokens, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyMatches(apiKey, c.GetHeader("X-API-KEY")) {
			c.Set(ctxRole, models.RoleAdmin)
			c.Next()
			return
		}

		if !authenticate(c, tokens) {
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
