package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

// GetProduct returns one active product by numeric id or slug.
// URL param: /products/:idOrSlug
func GetProduct(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("idOrSlug")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		q := cat.DB.Preload("Category").Where("is_active = ?", true)
		if id, err := strconv.ParseUint(key, 10, 64); err == nil {
			q = q.Where("id = ?", id)
		} else {
			q = q.Where("slug = ?", key)
		}

		var product models.Product
		if err := q.First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			errx.Respond(c, err)
			return
		}

		var related []models.Product
		if product.CategoryID != nil {
			if err := cat.DB.Where("category_id = ? AND id <> ? AND is_active = ?", *product.CategoryID, product.ID, true).
				Order("is_featured DESC").Order("created_at DESC").Limit(4).
				Find(&related).Error; err != nil {
				errx.Respond(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"product": product, "related": related})
	}
}
