package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/auth"
	"github.com/tienchung1704/real-dinhanstore/models"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// bearer extracts the token from "Authorization: Bearer <t>", a bare
// Authorization value, or the access_token query parameter (websocket clients
// cannot set headers).
func bearer(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return h
	}
	return c.Query("access_token")
}

// authenticate stores the token's identity on the context, or aborts with 401.
func authenticate(c *gin.Context, tokens *auth.Tokens) bool {
	raw := bearer(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		return false
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	return true
}

func ValidateToken(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens) {
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id set by ValidateToken.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func IsAdmin(c *gin.Context) bool {
	role, _ := c.Get(ctxRole)
	return role == models.RoleAdmin
}
