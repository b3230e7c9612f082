package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	chatControllers "github.com/tienchung1704/real-dinhanstore/controllers/chat"
	productcontroller "github.com/tienchung1704/real-dinhanstore/controllers/product"
	"github.com/tienchung1704/real-dinhanstore/middleware"
)

// setupPublicRoutes registers catalog browsing and the shop assistant.
func setupPublicRoutes(r *gin.Engine, h *handlers) {
	products := r.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(h.catalog))
		products.GET("/brands", productcontroller.GetBrands(h.catalog))
		products.GET("/:idOrSlug", productcontroller.GetProduct(h.catalog))
	}

	categories := r.Group("/categories")
	{
		categories.GET("", productcontroller.GetCategories(h.catalog))
		categories.GET("/:slug", productcontroller.GetCategory(h.catalog))
	}

	r.GET("/shop", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":                    h.Shop.Name,
			"hotline":                 h.Shop.Hotline,
			"email":                   h.Shop.Email,
			"address":                 h.Shop.Address,
			"website":                 h.Shop.Website,
			"free_shipping_threshold": h.rules.FreeShippingThreshold,
			"shipping_fee":            h.rules.ShippingFee,
			"cashback_rate":           h.rules.CashbackRate,
			"policies":                h.Shop.Policies,
		})
	})

	r.POST("/chat", middleware.RateLimit(h.ChatLimit), chatControllers.Chat(h.DB, h.Shop, h.Assistant))
}
