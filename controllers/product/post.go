package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductInput is the admin create payload. Images are URLs; uploads are
// handled outside this service.
type ProductInput struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price" binding:"required"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Stock       int              `json:"stock" binding:"min=0"`
	Brand       string           `json:"brand"`
	Images      []string         `json:"images"`
	IsActive    *bool            `json:"is_active"`
	IsFeatured  bool             `json:"is_featured"`
	CategoryID  *uint            `json:"category_id"`
}

func validatePrices(price decimal.Decimal, sale *decimal.Decimal) error {
	if !price.IsPositive() {
		return errx.BadRequest("price must be positive")
	}
	if sale != nil && (sale.IsNegative() || sale.GreaterThan(price)) {
		return errx.BadRequest("sale_price must be between 0 and price")
	}
	return nil
}

func checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	if err := tx.Select("id").First(&models.Category{}, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errx.BadRequest("category does not exist")
		}
		return err
	}
	return nil
}

func cleanImages(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil || d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// CreateProduct creates a product from JSON. The slug defaults to the
// diacritic-folded name and is made unique.
func CreateProduct(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if err := validatePrices(input.Price, input.SalePrice); err != nil {
			errx.Respond(c, err)
			return
		}

		product := models.Product{
			Name:        strings.TrimSpace(input.Name),
			Description: input.Description,
			Price:       input.Price,
			SalePrice:   nullDecimal(input.SalePrice),
			Stock:       input.Stock,
			Brand:       strings.TrimSpace(input.Brand),
			Images:      cleanImages(input.Images),
			IsActive:    input.IsActive == nil || *input.IsActive,
			IsFeatured:  input.IsFeatured,
			CategoryID:  input.CategoryID,
		}
		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			if err := checkCategory(tx, input.CategoryID); err != nil {
				return err
			}
			base := Slugify(input.Slug)
			if base == "" {
				base = Slugify(product.Name)
			}
			slug, err := uniqueSlug(tx, &models.Product{}, base, 0)
			if err != nil {
				return err
			}
			product.Slug = slug
			return tx.Create(&product).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusCreated, product)
	}
}
