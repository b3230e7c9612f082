package checkoutControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
)

// GET /user/orders/:orderID/vietqr returns the bank-transfer QR for an unpaid
// transfer order. The order number is the transfer note an admin matches
// against the bank statement.
func (co *Checkout) VietQRCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !co.VietQR.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bank transfer is not available"})
			return
		}
		userID, _ := middleware.CurrentUserID(c)
		id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		order, err := co.ownedOrder(c.Request.Context(), uint(id), userID)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		switch {
		case order.PaymentMethod != models.PaymentMethodVietQR:
			errx.Respond(c, errx.BadRequest("order is not a bank transfer order"))
			return
		case order.PaymentStatus == models.PaymentStatusPaid:
			errx.Respond(c, errx.Conflict("order is already paid"))
			return
		case order.Status == models.OrderStatusCancelled:
			errx.Respond(c, errx.Conflict("order is cancelled"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"qr_url":        co.VietQR.ImageURL(order.Total, order.OrderNumber),
			"amount":        order.Total,
			"transfer_note": order.OrderNumber,
			"bank_id":       co.VietQR.BankID,
			"account_no":    co.VietQR.AccountNo,
			"account_name":  co.VietQR.AccountName,
		})
	}
}
