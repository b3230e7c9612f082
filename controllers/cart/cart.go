package cartControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type ReplaceCartRequest struct {
	Items        []CartItemInput `json:"items" binding:"dive"`
	DiscountCode string          `json:"discount_code"`
}

type DiscountRequest struct {
	Code string `json:"code"`
}

type ItemView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Brand     string          `json:"brand"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	LineTotal decimal.Decimal `json:"line_total"`
	// Available is false when the product was deactivated or no longer has
	// enough stock; such lines are left out of the quote.
	Available bool `json:"available"`
}

type CartView struct {
	ID              uint           `json:"id"`
	Items           []ItemView     `json:"items"`
	ItemCount       int            `json:"item_count"`
	DiscountCode    string         `json:"discount_code"`
	DiscountPercent int            `json:"discount_percent"`
	Points          int64          `json:"points"`
	Quote           *pricing.Quote `json:"quote"`
}

func ensureCart(tx *gorm.DB, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	return cart, err
}

func loadUser(db *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	if err := db.Select("id", "points").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, errx.NotFound("user not found")
		}
		return user, err
	}
	return user, nil
}

// LoadView returns the user's cart with live product data and a quote that
// redeems up to pointsRequested points. A stored discount code that is no
// longer configured is dropped from the quote.
func LoadView(db *gorm.DB, rules pricing.Rules, userID uint, pointsRequested int64) (CartView, error) {
	user, err := loadUser(db, userID)
	if err != nil {
		return CartView{}, err
	}
	cart, err := ensureCart(db, userID)
	if err != nil {
		return CartView{}, err
	}
	var items []models.CartItem
	if err := db.Preload("Product").Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error; err != nil {
		return CartView{}, err
	}

	view := CartView{ID: cart.ID, Items: make([]ItemView, 0, len(items)), Points: user.Points}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p := it.Product
		iv := ItemView{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Image:     p.PrimaryImage(),
			Brand:     p.Brand,
			UnitPrice: p.UnitPrice(),
			Quantity:  it.Quantity,
			Stock:     p.Stock,
			LineTotal: p.UnitPrice().Mul(decimal.NewFromInt(int64(it.Quantity))),
			Available: p.IsActive && p.Stock >= it.Quantity,
		}
		view.Items = append(view.Items, iv)
		view.ItemCount += it.Quantity
		if iv.Available {
			lines = append(lines, pricing.Line{ProductID: p.ID, Name: p.Name, UnitPrice: iv.UnitPrice, Quantity: it.Quantity})
		}
	}

	code := cart.DiscountCode
	if dc, err := rules.LookupDiscount(code); err == nil {
		view.DiscountCode, view.DiscountPercent = dc.Code, dc.Percent
	} else {
		code = ""
	}
	if len(lines) == 0 {
		return view, nil
	}
	points := min(pointsRequested, user.Points)
	quote, err := rules.Price(lines, code, points, user.Points)
	if err != nil {
		return CartView{}, errx.Invalid(err)
	}
	view.Quote = &quote
	return view, nil
}

func respondView(c *gin.Context, db *gorm.DB, rules pricing.Rules, userID uint, status int) {
	view, err := LoadView(db, rules, userID, 0)
	if err != nil {
		errx.Respond(c, err)
		return
	}
	c.JSON(status, view)
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// GET /user/cart
func GetCart(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}

// GET /user/cart/quote?points=
func QuoteCart(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		points, err := strconv.ParseInt(c.DefaultQuery("points", "0"), 10, 64)
		if err != nil || points < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "points must be a non-negative integer"})
			return
		}
		view, err := LoadView(db, rules, userID, points)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		if view.Quote == nil {
			errx.Respond(c, errx.Invalid(pricing.ErrEmptyCart))
			return
		}
		if points > view.Points {
			errx.Respond(c, errx.Invalid(pricing.ErrInsufficientPoints))
			return
		}
		c.JSON(http.StatusOK, view.Quote)
	}
}

// PUT /user/cart replaces every item and the discount code. Unknown or
// inactive products are skipped.
func ReplaceCart(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req ReplaceCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		dc, err := rules.LookupDiscount(req.DiscountCode)
		if err != nil {
			errx.Respond(c, errx.Invalid(err))
			return
		}

		qty := make(map[uint]int, len(req.Items))
		ids := make([]uint, 0, len(req.Items))
		for _, it := range req.Items {
			if _, seen := qty[it.ProductID]; !seen {
				ids = append(ids, it.ProductID)
			}
			qty[it.ProductID] += it.Quantity
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			cart, err := ensureCart(tx, userID)
			if err != nil {
				return err
			}
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			var known []uint
			if len(ids) > 0 {
				if err := tx.Model(&models.Product{}).Where("id IN ? AND is_active = ?", ids, true).Pluck("id", &known).Error; err != nil {
					return err
				}
			}
			valid := make(map[uint]bool, len(known))
			for _, id := range known {
				valid[id] = true
			}
			items := make([]models.CartItem, 0, len(known))
			for _, id := range ids {
				if valid[id] {
					items = append(items, models.CartItem{CartID: cart.ID, ProductID: id, Quantity: qty[id]})
				}
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
			return tx.Model(&cart).Update("discount_code", dc.Code).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}

// POST /user/cart/items sets the quantity of one product.
func UpsertCartItem(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var product models.Product
		if err := db.First(&product, input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product does not exist"})
				return
			}
			errx.Respond(c, err)
			return
		}
		if !product.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product is not available"})
			return
		}
		if product.Stock < input.Quantity {
			c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock", "stock": product.Stock})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			cart, err := ensureCart(tx, userID)
			if err != nil {
				return err
			}
			item := models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: input.Quantity}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(&item).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}

// DELETE /user/cart/items/:productID
func DeleteCartItem(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		productID, err := strconv.ParseUint(c.Param("productID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		cart, err := ensureCart(db, userID)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		result := db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if result.Error != nil {
			errx.Respond(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}

// POST /user/cart/discount applies a discount code; an empty code removes it.
func ApplyDiscount(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req DiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		dc, err := rules.LookupDiscount(req.Code)
		if err != nil {
			errx.Respond(c, errx.Invalid(err))
			return
		}
		cart, err := ensureCart(db, userID)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		if err := db.Model(&cart).Update("discount_code", dc.Code).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}

// DELETE /user/cart
func ClearCart(db *gorm.DB, rules pricing.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			cart, err := ensureCart(tx, userID)
			if err != nil {
				return err
			}
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			return tx.Model(&cart).Update("discount_code", "").Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		respondView(c, db, rules, userID, http.StatusOK)
	}
}
