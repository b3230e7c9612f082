package productcontroller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

// DeleteProduct removes a product, the cart lines that reference it, and
// detaches it from past order items, which keep their snapshot.
func DeleteProduct(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}

		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			var product models.Product
			if err := tx.Select("id").First(&product, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errx.NotFound("Product not found")
				}
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).
				Update("product_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&product).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		logx.Info().Uint("product_id", id).Msg("product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
