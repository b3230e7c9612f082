package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

type SyncUserRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Avatar     string `json:"avatar"`
}

// UpsertUser finds the user by identity-provider subject, then by email, and
// creates it (with an empty cart) when neither exists. Roles and points are
// never touched here.
func UpsertUser(db *gorm.DB, req SyncUserRequest) (models.User, error) {
	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		err := tx.Where("external_id = ?", req.ExternalID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = tx.Where("email = ?", email).First(&user).Error
		}

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				ExternalID: req.ExternalID,
				Email:      email,
				FirstName:  req.FirstName,
				LastName:   req.LastName,
				Phone:      req.Phone,
				Avatar:     req.Avatar,
				Role:       models.RoleCustomer,
				IsActive:   true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&models.Cart{UserID: user.ID}).Error
		case err != nil:
			return err
		}

		if err := tx.Model(&user).Updates(map[string]any{
			"external_id": req.ExternalID,
			"email":       email,
			"first_name":  req.FirstName,
			"last_name":   req.LastName,
			"phone":       req.Phone,
			"avatar":      req.Avatar,
		}).Error; err != nil {
			return err
		}
		return tx.First(&user, user.ID).Error
	})
	return user, err
}

// POST /auth/sync
func SyncUser(db *gorm.DB, tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := UpsertUser(db, req)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
			return
		}

		token, exp, err := tokens.Issue(user)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		logx.Info().Uint("user_id", user.ID).Msg("user synced")
		c.JSON(http.StatusOK, gin.H{
			"user":       user,
			"token":      token,
			"expires_at": exp,
		})
	}
}
