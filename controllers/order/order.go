package orderControllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/controllers/paging"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func mapOrderStatus(status string) (models.OrderStatus, bool) {
	switch s := models.OrderStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return s, true
	}
	return "", false
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// POST /user/orders
func PlaceOrderHandler(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.UserID = userID

		order, err := s.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
	}
}

// GET /user/orders
func GetMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		pg := paging.Parse(c)

		q := db.Model(&models.Order{}).Where("user_id = ?", userID)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		var orders []models.Order
		if err := q.Preload("Items").Order("created_at DESC").
			Offset(pg.Offset()).Limit(pg.Limit).Find(&orders).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "pagination": pg.Result(total)})
	}
}

// GET /user/orders/:orderID accepts an id or an order number. Customers only
// see their own orders.
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("orderID")
		q := db.Preload("Items")
		if id, err := strconv.ParseUint(key, 10, 64); err == nil {
			q = q.Where("id = ?", id)
		} else {
			q = q.Where("order_number = ?", key)
		}
		if !middleware.IsAdmin(c) {
			userID, _ := middleware.CurrentUserID(c)
			q = q.Where("user_id = ?", userID)
		}

		var order models.Order
		if err := q.First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /user/orders/:orderID/cancel
func CancelMyOrderHandler(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		userID, _ := middleware.CurrentUserID(c)
		order, err := s.Cancel(c.Request.Context(), id, userID, false)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pg := paging.Parse(c)
		q := db.Model(&models.Order{})
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if ps := c.Query("payment_status"); ps != "" {
			q = q.Where("payment_status = ?", ps)
		}
		if uid := c.Query("user_id"); uid != "" {
			q = q.Where("user_id = ?", uid)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(order_number) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(customer_name) LIKE ?", like, like, like)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		var orders []models.Order
		if err := q.Preload("Items").Order("created_at DESC").
			Offset(pg.Offset()).Limit(pg.Limit).Find(&orders).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "pagination": pg.Result(total)})
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, ok := mapOrderStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}
		order, err := s.UpdateStatus(c.Request.Context(), id, status)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "order": order})
	}
}

// POST /admin/orders/:orderID/confirm-transfer settles a bank-transfer order
// once staff have seen the money arrive.
func ConfirmTransferHandler(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req struct {
			Reference string `json:"reference"`
		}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		var order models.Order
		if err := s.DB.Select("id", "payment_method").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			errx.Respond(c, err)
			return
		}
		if order.PaymentMethod != models.PaymentMethodVietQR {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order is not paid by bank transfer"})
			return
		}

		ref := req.Reference
		if ref == "" {
			ref = "vietqr"
		}
		res, err := s.SettlePayment(c.Request.Context(), id, ref)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		msg := "Payment confirmed"
		switch {
		case res.RefundRequired:
			msg = "Transfer recorded on a cancelled order, refund required"
		case res.AlreadySettled:
			msg = "Already processed"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "order": res.Order})
	}
}

// DELETE /admin/orders/:orderID removes a cancelled order.
func DeleteOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := lockOrder(tx, id, &order); err != nil {
				return err
			}
			if order.Status != models.OrderStatusCancelled {
				return errx.Conflict("only cancelled orders can be deleted")
			}
			if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Order{}, id).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
	}
}
