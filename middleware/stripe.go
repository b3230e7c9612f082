package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/payment"
)

const (
	maxWebhookBody = 65536
	ctxStripeEvent = "stripe_event"
)

// StripeWebhookAuth verifies the Stripe-Signature header over the raw body and
// stores the parsed event for the handler.
func StripeWebhookAuth(gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}

		sig := c.GetHeader("Stripe-Signature")
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing Stripe-Signature header"})
			return
		}

		event, err := gw.ParseWebhook(body, sig)
		if err != nil {
			if errors.Is(err, payment.ErrDisabled) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "card payments are not configured"})
				return
			}
			logx.Warn().Err(err).Msg("rejected stripe webhook")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		c.Set(ctxStripeEvent, event)
		c.Next()
	}
}

// StripeEvent returns the event verified by StripeWebhookAuth.
func StripeEvent(c *gin.Context) (*payment.WebhookEvent, bool) {
	v, ok := c.Get(ctxStripeEvent)
	if !ok {
		return nil, false
	}
	ev, ok := v.(*payment.WebhookEvent)
	return ev, ok
}
