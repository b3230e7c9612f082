package addressControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AddressInput struct {
	FullName      string `json:"full_name" binding:"required,max=255"`
	Phone         string `json:"phone" binding:"required,max=30"`
	Province      string `json:"province" binding:"required"`
	District      string `json:"district" binding:"required"`
	Ward          string `json:"ward" binding:"required"`
	AddressDetail string `json:"address_detail" binding:"required,max=500"`
	IsDefault     bool   `json:"is_default"`
}

func (in AddressInput) apply(a *models.Address) {
	a.FullName = in.FullName
	a.Phone = in.Phone
	a.Province = in.Province
	a.District = in.District
	a.Ward = in.Ward
	a.AddressDetail = in.AddressDetail
}

func addressIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("addressID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return 0, false
	}
	return uint(id), true
}

func findOwned(tx *gorm.DB, id, userID uint, a *models.Address) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).First(a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errx.NotFound("address not found")
		}
		return err
	}
	return nil
}

func unsetDefaults(tx *gorm.DB, userID, except uint) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, except, true).
		Update("is_default", false).Error
}

// GET /user/addresses
func ListAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		var addresses []models.Address
		if err := db.Where("user_id = ?", userID).
			Order("is_default DESC").Order("created_at DESC").Order("id DESC").
			Find(&addresses).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// POST /user/addresses. The first address always becomes the default.
func CreateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		var input AddressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		address := models.Address{UserID: userID}
		input.apply(&address)
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			address.IsDefault = input.IsDefault || count == 0
			if err := tx.Create(&address).Error; err != nil {
				return err
			}
			if address.IsDefault {
				return unsetDefaults(tx, userID, address.ID)
			}
			return nil
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

// PUT /user/addresses/:addressID
func UpdateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		id, ok := addressIDParam(c)
		if !ok {
			return
		}
		var input AddressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var address models.Address
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := findOwned(tx, id, userID, &address); err != nil {
				return err
			}
			input.apply(&address)
			// Unsetting the only default is ignored; a user with addresses keeps one.
			if input.IsDefault {
				address.IsDefault = true
			}
			if err := tx.Save(&address).Error; err != nil {
				return err
			}
			if address.IsDefault {
				return unsetDefaults(tx, userID, address.ID)
			}
			return nil
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

// PUT /user/addresses/:addressID/default
func SetDefaultAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		id, ok := addressIDParam(c)
		if !ok {
			return
		}
		var address models.Address
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := findOwned(tx, id, userID, &address); err != nil {
				return err
			}
			if err := tx.Model(&address).Update("is_default", true).Error; err != nil {
				return err
			}
			address.IsDefault = true
			return unsetDefaults(tx, userID, address.ID)
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

// DELETE /user/addresses/:addressID. Removing the default promotes the newest
// remaining address.
func DeleteAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		id, ok := addressIDParam(c)
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			var address models.Address
			if err := findOwned(tx, id, userID, &address); err != nil {
				return err
			}
			if err := tx.Delete(&address).Error; err != nil {
				return err
			}
			if !address.IsDefault {
				return nil
			}
			var next models.Address
			err := tx.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").First(&next).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return tx.Model(&next).Update("is_default", true).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
	}
}
