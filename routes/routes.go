package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/assistant"
	"github.com/tienchung1704/real-dinhanstore/auth"
	"github.com/tienchung1704/real-dinhanstore/cache"
	"github.com/tienchung1704/real-dinhanstore/config"
	analyticsControllers "github.com/tienchung1704/real-dinhanstore/controllers/analytics"
	checkoutControllers "github.com/tienchung1704/real-dinhanstore/controllers/checkout"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	productcontroller "github.com/tienchung1704/real-dinhanstore/controllers/product"
	"github.com/tienchung1704/real-dinhanstore/events"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/payment"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"gorm.io/gorm"
)

// Deps carries everything the handlers are built from.
type Deps struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Shop      *config.ShopSettings
	Tokens    *auth.Tokens
	Cache     cache.Cache
	Orders    *orderControllers.Service
	Gateway   payment.Gateway
	VietQR    payment.VietQR
	Assistant assistant.Assistant
	Hub       *events.Hub
	ChatLimit *middleware.KeyedLimiter
}

// handlers are built once so the catalog cache and reports share state.
type handlers struct {
	Deps
	rules    pricing.Rules
	catalog  *productcontroller.Catalog
	reports  *analyticsControllers.Reports
	checkout *checkoutControllers.Checkout
}

func newHandlers(d Deps) *handlers {
	rules := d.Shop.PricingRules()
	return &handlers{
		Deps:    d,
		rules:   rules,
		catalog: productcontroller.NewCatalog(d.DB, d.Cache, d.Cfg.CacheTTL()),
		reports: &analyticsControllers.Reports{
			DB:                d.DB,
			Loc:               d.Orders.Loc,
			LowStockThreshold: d.Shop.LowStockThreshold,
		},
		checkout: checkoutControllers.New(d.Orders, d.Gateway, d.VietQR, d.Cache),
	}
}

// SetupRoutes is the single entry point that wires every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	h := newHandlers(d)

	r.GET("/health", h.health)

	setupPublicRoutes(r, h)
	setupAuthRoutes(r, h)
	setupUserRoutes(r, h)
	setupCheckoutRoutes(r, h)
	setupAdminRoutes(r, h)
}

func (h *handlers) health(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"status": "ok", "time": time.Now().UTC()}
	code := http.StatusOK

	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["status"], status["database"] = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := h.Cache.Ping(ctx); err != nil {
		status["cache"] = "unreachable"
	}
	c.JSON(code, status)
}
