package userControllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/controllers/paging"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

type UpdateUserInput struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Avatar    *string `json:"avatar"`
}

func loadUser(db *gorm.DB, c *gin.Context, user *models.User, preload ...string) bool {
	userID, _ := middleware.CurrentUserID(c)
	q := db
	for _, p := range preload {
		q = q.Preload(p)
	}
	if err := q.First(user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return false
		}
		errx.Respond(c, err)
		return false
	}
	return true
}

// GET /user/me
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if !loadUser(db, c, &user, "Addresses") {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /user/me
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if !loadUser(db, c, &user) {
			return
		}
		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := make(map[string]interface{})
		if input.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*input.LastName)
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
		if input.Avatar != nil {
			updates["avatar"] = *input.Avatar
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
			if err := db.First(&user, user.ID).Error; err != nil {
				errx.Respond(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /user/role
func GetRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if !loadUser(db, c, &user) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": user.Role, "is_admin": user.IsAdmin()})
	}
}

// GET /user/points returns the balance and the ledger, newest first.
func GetPoints(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if !loadUser(db, c, &user) {
			return
		}
		pg := paging.Parse(c)
		q := db.Model(&models.PointTransaction{}).Where("user_id = ?", user.ID)
		var total int64
		if err := q.Count(&total).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		var ledger []models.PointTransaction
		if err := q.Order("created_at DESC").Order("id DESC").
			Offset(pg.Offset()).Limit(pg.Limit).Find(&ledger).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"points":       user.Points,
			"transactions": ledger,
			"pagination":   pg.Result(total),
		})
	}
}

type PurchasedProduct struct {
	Product       models.Product  `json:"product"`
	Quantity      int64           `json:"quantity"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	LastPurchased time.Time       `json:"last_purchased"`
}

const purchaseHistoryLimit = 10

// PurchaseHistory returns the products a user bought most, by quantity, over
// orders that were not cancelled. Deleted or inactive products are left out.
func PurchaseHistory(db *gorm.DB, userID uint) ([]PurchasedProduct, error) {
	var rows []struct {
		ProductID     uint
		Quantity      int64
		TotalSpent    decimal.Decimal
		LastPurchased string
	}
	err := db.Table("order_items").
		Select("order_items.product_id, SUM(order_items.quantity) AS quantity, SUM(order_items.total) AS total_spent, MAX(orders.created_at) AS last_purchased").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.user_id = ? AND orders.status <> ? AND products.is_active = ?", userID, models.OrderStatusCancelled, true).
		Group("order_items.product_id").
		Order("quantity DESC").Order("order_items.product_id").
		Limit(purchaseHistoryLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []PurchasedProduct{}, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ProductID
	}
	var products []models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]PurchasedProduct, 0, len(rows))
	for _, r := range rows {
		p, ok := byID[r.ProductID]
		if !ok {
			continue
		}
		out = append(out, PurchasedProduct{
			Product:       p,
			Quantity:      r.Quantity,
			TotalSpent:    r.TotalSpent,
			LastPurchased: parseDBTime(r.LastPurchased),
		})
	}
	return out, nil
}

// parseDBTime reads an aggregated timestamp, which drivers return as text.
func parseDBTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GET /user/purchase-history
func GetPurchaseHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		items, err := PurchaseHistory(db, userID)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GET /admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pg := paging.Parse(c)
		q := db.Model(&models.User{})
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ?",
				like, like, like, like)
		}
		if role := c.Query("role"); role != "" {
			q = q.Where("role = ?", role)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		var users []models.User
		if err := q.Order("created_at desc").Offset(pg.Offset()).Limit(pg.Limit).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "pagination": pg.Result(total)})
	}
}
