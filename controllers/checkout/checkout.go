package checkoutControllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/cache"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	"github.com/tienchung1704/real-dinhanstore/errx"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/payment"
	"gorm.io/gorm"
)

const eventDedupeTTL = 24 * time.Hour

type Checkout struct {
	Orders  *orderControllers.Service
	Gateway payment.Gateway
	VietQR  payment.VietQR
	Cache   cache.Cache
}

func New(orders *orderControllers.Service, gw payment.Gateway, qr payment.VietQR, c cache.Cache) *Checkout {
	if gw == nil {
		gw = payment.Disabled{}
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Checkout{Orders: orders, Gateway: gw, VietQR: qr, Cache: c}
}

type CreateSessionRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

type VerifyRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	OrderID   uint   `json:"order_id"`
}

func gatewayError(err error) error {
	if errors.Is(err, payment.ErrDisabled) {
		return errx.New(err, http.StatusServiceUnavailable, "card payments are not available")
	}
	return errx.Upstream(err, "payment provider error")
}

// ownedOrder loads an order that belongs to userID.
func (co *Checkout) ownedOrder(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	if err := co.Orders.DB.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errx.NotFound("order not found")
		}
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, errx.NotFound("order not found")
	}
	return &order, nil
}

// POST /user/checkout/stripe opens a hosted checkout page for a pending card
// order. When the session cannot be created the order is cancelled so its
// stock and points are released.
func (co *Checkout) CreateStripeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		var req CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()

		order, err := co.ownedOrder(ctx, req.OrderID, userID)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		switch {
		case order.PaymentMethod != models.PaymentMethodStripe:
			errx.Respond(c, errx.BadRequest("order is not a card payment order"))
			return
		case order.PaymentStatus == models.PaymentStatusPaid:
			errx.Respond(c, errx.Conflict("order is already paid"))
			return
		case order.Status != models.OrderStatusPending:
			errx.Respond(c, errx.Conflict("order is not awaiting payment"))
			return
		}

		sess, err := co.Gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        userID,
			CustomerEmail: order.CustomerEmail,
			Amount:        order.Total,
			PointsUsed:    order.PointsUsed,
			Description:   "Order " + order.OrderNumber,
		})
		if err != nil {
			logx.Error().Err(err).Str("order_number", order.OrderNumber).Msg("create checkout session")
			if !errors.Is(err, payment.ErrDisabled) {
				if _, _, ferr := co.Orders.FailPayment(ctx, order.ID); ferr != nil {
					logx.Error().Err(ferr).Uint("order_id", order.ID).Msg("release order after checkout failure")
				}
			}
			errx.Respond(c, gatewayError(err))
			return
		}

		if err := co.Orders.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).
			Update("stripe_session_id", sess.ID).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "url": sess.URL})
	}
}

// POST /user/checkout/stripe/verify is called by the success page. It settles
// the order when the session is paid; a webhook may already have done so.
func (co *Checkout) VerifyStripeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()

		sess, err := co.Gateway.RetrieveSession(ctx, req.SessionID)
		if err != nil {
			errx.Respond(c, gatewayError(err))
			return
		}
		if !sess.Paid() {
			errx.Respond(c, errx.New(nil, http.StatusPaymentRequired, "payment has not been completed"))
			return
		}

		orderID := req.OrderID
		if orderID == 0 {
			orderID = sess.OrderID()
		}
		if orderID == 0 || (sess.OrderID() != 0 && sess.OrderID() != orderID) {
			errx.Respond(c, errx.BadRequest("session does not match the order"))
			return
		}
		if _, err := co.ownedOrder(ctx, orderID, userID); err != nil {
			errx.Respond(c, err)
			return
		}

		ref := sess.PaymentIntentID
		if ref == "" {
			ref = sess.ID
		}
		res, err := co.Orders.SettlePayment(ctx, orderID, ref)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		msg := "Payment verified"
		switch {
		case res.RefundRequired:
			msg = "Payment received for a cancelled order, it will be refunded"
		case res.AlreadySettled:
			msg = "Already processed"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "order": res.Order})
	}
}

// POST /webhooks/stripe runs after middleware.StripeWebhookAuth. Each event id
// is handled once; a failed attempt clears its marker so Stripe's retry is
// processed.
func (co *Checkout) StripeWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, ok := middleware.StripeEvent(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing event"})
			return
		}
		ctx := c.Request.Context()
		key := "stripe:evt:" + event.ID

		first, err := co.Cache.SetNX(ctx, key, []byte(event.Type), eventDedupeTTL)
		if err != nil {
			logx.Warn().Err(err).Str("event_id", event.ID).Msg("stripe event dedupe unavailable")
			first = true
		}
		if !first {
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}

		if err := co.handleEvent(ctx, event); err != nil {
			if status, _ := errx.Status(err); status >= http.StatusInternalServerError {
				if derr := co.Cache.DeletePrefix(ctx, key); derr != nil {
					logx.Warn().Err(derr).Str("event_id", event.ID).Msg("clear stripe event marker")
				}
				errx.Respond(c, err)
				return
			}
			logx.Warn().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("stripe event ignored")
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (co *Checkout) handleEvent(ctx context.Context, event *payment.WebhookEvent) error {
	orderID := event.OrderID()
	switch event.Type {
	case payment.EventSessionCompleted:
		if orderID == 0 || event.Session == nil {
			return errx.BadRequest("event has no order reference")
		}
		if !event.Session.Paid() {
			return nil
		}
		ref := event.Session.PaymentIntentID
		if ref == "" {
			ref = event.Session.ID
		}
		res, err := co.Orders.SettlePayment(ctx, orderID, ref)
		if err != nil {
			return err
		}
		logx.Info().Str("order_number", res.Order.OrderNumber).Bool("already", res.AlreadySettled).
			Bool("refund_required", res.RefundRequired).Msg("stripe checkout completed")
	case payment.EventPaymentFailed:
		// the session stays open and the customer may retry with another card;
		// the order is released when the session expires
		logx.Info().Uint("order_id", orderID).Str("event_id", event.ID).Msg("stripe payment attempt declined")
	case payment.EventSessionExpired:
		if orderID == 0 {
			return errx.BadRequest("event has no order reference")
		}
		order, changed, err := co.Orders.FailPayment(ctx, orderID)
		if err != nil {
			return err
		}
		if changed {
			logx.Info().Str("order_number", order.OrderNumber).Str("type", event.Type).Msg("stripe payment failed")
		}
	default:
		logx.Debug().Str("type", event.Type).Msg("unhandled stripe event")
	}
	return nil
}
