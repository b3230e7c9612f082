package routes

import (
	"github.com/gin-gonic/gin"
	addressControllers "github.com/tienchung1704/real-dinhanstore/controllers/address"
	cartControllers "github.com/tienchung1704/real-dinhanstore/controllers/cart"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	userControllers "github.com/tienchung1704/real-dinhanstore/controllers/user"
	"github.com/tienchung1704/real-dinhanstore/middleware"
)

// setupUserRoutes registers all "/user/*" endpoints. Requires a JWT.
func setupUserRoutes(r *gin.Engine, h *handlers) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(h.Tokens))
	{
		// profile
		userGroup.GET("/me", userControllers.GetUser(h.DB))
		userGroup.PUT("/me", userControllers.UpdateUser(h.DB))
		userGroup.GET("/role", userControllers.GetRole(h.DB))
		userGroup.GET("/points", userControllers.GetPoints(h.DB))
		userGroup.GET("/purchase-history", userControllers.GetPurchaseHistory(h.DB))

		addresses := userGroup.Group("/addresses")
		{
			addresses.GET("", addressControllers.ListAddresses(h.DB))
			addresses.POST("", addressControllers.CreateAddress(h.DB))
			addresses.PUT("/:addressID", addressControllers.UpdateAddress(h.DB))
			addresses.PUT("/:addressID/default", addressControllers.SetDefaultAddress(h.DB))
			addresses.DELETE("/:addressID", addressControllers.DeleteAddress(h.DB))
		}

		cart := userGroup.Group("/cart")
		{
			cart.GET("", cartControllers.GetCart(h.DB, h.rules))
			cart.GET("/quote", cartControllers.QuoteCart(h.DB, h.rules))
			cart.PUT("", cartControllers.ReplaceCart(h.DB, h.rules))
			cart.DELETE("", cartControllers.ClearCart(h.DB, h.rules))
			cart.POST("/items", cartControllers.UpsertCartItem(h.DB, h.rules))
			cart.DELETE("/items/:productID", cartControllers.DeleteCartItem(h.DB, h.rules))
			cart.POST("/discount", cartControllers.ApplyDiscount(h.DB, h.rules))
		}

		orders := userGroup.Group("/orders")
		{
			orders.POST("", orderControllers.PlaceOrderHandler(h.Orders))
			orders.GET("", orderControllers.GetMyOrdersHandler(h.DB))
			orders.GET("/:orderID", orderControllers.GetOrderHandler(h.DB))
			orders.POST("/:orderID/cancel", orderControllers.CancelMyOrderHandler(h.Orders))
			orders.GET("/:orderID/vietqr", h.checkout.VietQRCode())
		}
	}
}
