package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/middleware"
)

// setupCheckoutRoutes registers Stripe Checkout for signed-in customers and
// the signed Stripe webhook.
func setupCheckoutRoutes(r *gin.Engine, h *handlers) {
	stripeGroup := r.Group("/checkout/stripe")
	stripeGroup.Use(middleware.ValidateToken(h.Tokens))
	{
		stripeGroup.POST("/session", h.checkout.CreateStripeSession())
		stripeGroup.POST("/verify", h.checkout.VerifyStripeSession())
	}

	r.POST("/webhooks/stripe", middleware.StripeWebhookAuth(h.Gateway), h.checkout.StripeWebhook())
}
