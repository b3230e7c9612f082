package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/tienchung1704/real-dinhanstore/controllers/admin"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	productcontroller "github.com/tienchung1704/real-dinhanstore/controllers/product"
	userControllers "github.com/tienchung1704/real-dinhanstore/controllers/user"
	"github.com/tienchung1704/real-dinhanstore/middleware"
)

// setupAdminRoutes registers all "/admin/*" endpoints. Requires the admin API
// key or an admin token.
func setupAdminRoutes(r *gin.Engine, h *handlers) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RequireAdmin(h.Tokens, h.Cfg.AdminAPIKey))
	{
		// ─────────── Admin & User Management ───────────
		adminGroup.GET("/admins", adminController.GetAllAdmins(h.DB))
		users := adminGroup.Group("/users")
		{
			users.GET("", userControllers.GetAllUsers(h.DB))
			users.GET("/:userID/cart", adminController.GetUserCart(h.DB, h.rules))
			users.POST("/:userID/points", adminController.AdjustUserPoints(h.DB))
		}
		adminGroup.POST("/db/seed", adminController.SeedCatalog(h.catalog))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("", productcontroller.GetAdminProducts(h.catalog))
			productAdmin.POST("", productcontroller.CreateProduct(h.catalog))
			productAdmin.PUT("/:productID", productcontroller.UpdateProduct(h.catalog))
			productAdmin.PUT("/:productID/stock", productcontroller.UpdateStock(h.catalog))
			productAdmin.DELETE("/:productID", productcontroller.DeleteProduct(h.catalog))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(h.catalog))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(h.catalog))
		}

		// ─────────── Category Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.POST("", productcontroller.CreateCategory(h.catalog))
			categoryAdmin.PUT("/:categoryID", productcontroller.UpdateCategory(h.catalog))
			categoryAdmin.DELETE("/:categoryID", productcontroller.DeleteCategory(h.catalog))
		}

		// ─────────── Orders ───────────
		orders := adminGroup.Group("/orders")
		{
			orders.GET("", orderControllers.GetAllOrdersHandler(h.DB))
			orders.GET("/ws", h.Hub.Handler())
			orders.GET("/:orderID", orderControllers.GetOrderHandler(h.DB))
			orders.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(h.Orders))
			orders.POST("/:orderID/confirm-transfer", orderControllers.ConfirmTransferHandler(h.Orders))
			orders.DELETE("/:orderID", orderControllers.DeleteOrderHandler(h.DB))
		}

		// ─────────── Analytics ───────────
		adminGroup.GET("/dashboard", h.reports.Dashboard())
		analytics := adminGroup.Group("/analytics")
		{
			analytics.GET("/revenue", h.reports.Revenue())
			analytics.GET("/revenue/export", h.reports.ExportRevenue())
		}
	}
}
