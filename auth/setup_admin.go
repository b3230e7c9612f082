package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

func secretMatches(secret, given string) bool {
	return secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(given)) == 1
}

// POST /setup/admin promotes a user to admin. Without an email the oldest
// account is promoted, which bootstraps the first administrator.
func SetupAdmin(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin setup is disabled"})
			return
		}
		var req struct {
			SecretKey string `json:"secret_key" binding:"required"`
			Email     string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !secretMatches(secret, req.SecretKey) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid secret key"})
			return
		}

		var user models.User
		q := db.Order("id ASC")
		if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
			q = q.Where("email = ?", email)
		}
		if err := q.First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			errx.Respond(c, err)
			return
		}

		if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		user.Role = models.RoleAdmin
		logx.Warn().Uint("user_id", user.ID).Str("email", user.Email).Msg("user promoted to admin")
		c.JSON(http.StatusOK, gin.H{"message": "User promoted to admin", "user": user})
	}
}

// GET /setup/admin?secret_key=...
func ListAdmins(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !secretMatches(secret, c.Query("secret_key")) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid secret key"})
			return
		}
		var admins []models.User
		if err := db.Where("role = ?", models.RoleAdmin).Order("id ASC").Find(&admins).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admins": admins, "count": len(admins)})
	}
}
