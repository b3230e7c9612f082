package adminController

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	cartControllers "github.com/tienchung1704/real-dinhanstore/controllers/cart"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	productcontroller "github.com/tienchung1704/real-dinhanstore/controllers/product"
	"github.com/tienchung1704/real-dinhanstore/errx"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"github.com/tienchung1704/real-dinhanstore/seed"
	"gorm.io/gorm"
)

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

// GET /admin/admins
func GetAllAdmins(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var admins []models.User
		if err := db.Where("role = ?", models.RoleAdmin).Order("created_at").Find(&admins).Error; err != nil {
			logx.Error().Err(err).Msg("fetch admins")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admins"})
			return
		}
		c.JSON(http.StatusOK, admins)
	}
}

// GET /admin/users/:userID/cart
func GetUserCart(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDParam(c)
		if !ok {
			return
		}
		view, err := cartControllers.LoadView(db, rules, userID, 0)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

type AdjustPointsRequest struct {
	Delta int64  `json:"delta" binding:"required"`
	Note  string `json:"note" binding:"required,max=255"`
}

// POST /admin/users/:userID/points credits or debits points by hand. The
// balance may not go negative.
func AdjustUserPoints(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDParam(c)
		if !ok {
			return
		}
		var req AdjustPointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var balance int64
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var err error
			balance, err = orderControllers.AdjustPoints(tx, userID, nil, req.Delta, models.PointKindAdjust, req.Note)
			return err
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		logx.Info().Uint("user_id", userID).Int64("delta", req.Delta).Msg("points adjusted")
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "points": balance})
	}
}

// POST /admin/db/seed loads the starter catalog; existing rows are kept.
func SeedCatalog(cat *productcontroller.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := seed.Run(c.Request.Context(), cat.DB)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		if res.Categories+res.Products > 0 {
			cat.Invalidate(c.Request.Context())
		}
		msg := "Database seeded successfully"
		if res.Categories+res.Products == 0 {
			msg = "Data already seeded"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "created": res})
	}
}
