package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

// ProductPatch updates only the fields that are present.
type ProductPatch struct {
	Name          *string          `json:"name" binding:"omitempty,max=255"`
	Slug          *string          `json:"slug"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	Stock         *int             `json:"stock" binding:"omitempty,min=0"`
	Brand         *string          `json:"brand"`
	Images        []string         `json:"images"`
	IsActive      *bool            `json:"is_active"`
	IsFeatured    *bool            `json:"is_featured"`
	CategoryID    *uint            `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
}

func UpdateProduct(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}
		var patch ProductPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var product models.Product
		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&product, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errx.NotFound("Product not found")
				}
				return err
			}

			if patch.Name != nil {
				product.Name = strings.TrimSpace(*patch.Name)
			}
			if patch.Description != nil {
				product.Description = *patch.Description
			}
			if patch.Price != nil {
				product.Price = *patch.Price
			}
			if patch.SalePrice != nil {
				product.SalePrice = nullDecimal(patch.SalePrice)
			}
			var sale *decimal.Decimal
			if product.SalePrice.Valid {
				sale = &product.SalePrice.Decimal
			}
			if err := validatePrices(product.Price, sale); err != nil {
				return err
			}
			if patch.Stock != nil {
				product.Stock = *patch.Stock
			}
			if patch.Brand != nil {
				product.Brand = strings.TrimSpace(*patch.Brand)
			}
			if patch.Images != nil {
				product.Images = cleanImages(patch.Images)
			}
			if patch.IsActive != nil {
				product.IsActive = *patch.IsActive
			}
			if patch.IsFeatured != nil {
				product.IsFeatured = *patch.IsFeatured
			}
			switch {
			case patch.ClearCategory:
				product.CategoryID = nil
			case patch.CategoryID != nil:
				if err := checkCategory(tx, patch.CategoryID); err != nil {
					return err
				}
				product.CategoryID = patch.CategoryID
			}
			if patch.Slug != nil {
				slug, err := uniqueSlug(tx, &models.Product{}, Slugify(*patch.Slug), product.ID)
				if err != nil {
					return err
				}
				product.Slug = slug
			}
			product.Category = nil
			return tx.Save(&product).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusOK, product)
	}
}

type StockInput struct {
	Stock int `json:"stock" binding:"min=0"`
}

// UpdateStock sets the stock level of one product.
func UpdateStock(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}
		var input StockInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		res := cat.DB.Model(&models.Product{}).Where("id = ?", id).Update("stock", input.Stock)
		if res.Error != nil {
			errx.Respond(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "stock": input.Stock})
	}
}
