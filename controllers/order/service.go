package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/events"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// Service owns every write that touches stock, points and order state. Each
// operation runs in one transaction so a failure leaves nothing half-applied.
type Service struct {
	DB     *gorm.DB
	Rules  pricing.Rules
	Events events.Publisher
	Loc    *time.Location
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) publish(ctx context.Context, t events.Type, o models.Order) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.NewOrderEvent(t, o)); err != nil {
		logx.Warn().Err(err).Str("event", string(t)).Uint("order_id", o.ID).Msg("publish order event")
	}
}

type ItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	UserID          uint                 `json:"-"`
	CustomerName    string               `json:"customer_name"`
	CustomerEmail   string               `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string               `json:"customer_phone"`
	ShippingAddress string               `json:"shipping_address"`
	AddressID       *uint                `json:"address_id"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" binding:"required,oneof=cod stripe vietqr"`
	DiscountCode    string               `json:"discount_code"`
	PointsToUse     int64                `json:"points_to_use" binding:"min=0"`
	Note            string               `json:"note"`
	// Items are ordered directly; when empty the user's cart is checked out.
	Items []ItemInput `json:"items" binding:"dive"`
}

// mergeItems sums duplicate products and sorts by id so row locks are always
// taken in the same order.
func mergeItems(items []ItemInput) []ItemInput {
	qty := make(map[uint]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}
	out := make([]ItemInput, 0, len(qty))
	for id, q := range qty {
		out = append(out, ItemInput{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrEmptyCart),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrUnknownDiscount),
		errors.Is(err, pricing.ErrNegativePoints),
		errors.Is(err, pricing.ErrInsufficientPoints):
		return errx.Invalid(err)
	}
	return err
}

// PlaceOrder validates stock, prices the order with server-side prices,
// reserves stock, debits redeemed points and clears the cart when the order
// came from it.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(forUpdate).First(&user, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errx.NotFound("user not found")
			}
			return err
		}

		items := req.Items
		code := req.DiscountCode
		var cart models.Cart
		fromCart := len(items) == 0
		if fromCart {
			if err := tx.Preload("Items").Where("user_id = ?", user.ID).First(&cart).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errx.Invalid(pricing.ErrEmptyCart)
				}
				return err
			}
			for _, it := range cart.Items {
				items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
			}
			if code == "" {
				// a code saved on the cart that is no longer offered is dropped,
				// as the cart quote does
				if _, err := s.Rules.LookupDiscount(cart.DiscountCode); err == nil {
					code = cart.DiscountCode
				}
			}
		}
		items = mergeItems(items)
		if len(items) == 0 {
			return errx.Invalid(pricing.ErrEmptyCart)
		}

		name, phone, address, err := s.resolveShipping(tx, user, req)
		if err != nil {
			return err
		}

		ids := make([]uint, len(items))
		for i, it := range items {
			ids[i] = it.ProductID
		}
		var products []models.Product
		if err := tx.Clauses(forUpdate).Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		lines := make([]pricing.Line, 0, len(items))
		for _, it := range items {
			p, ok := byID[it.ProductID]
			if !ok || !p.IsActive {
				return errx.BadRequest(fmt.Sprintf("product %d is not available", it.ProductID))
			}
			if it.Quantity < 1 {
				return errx.Invalid(pricing.ErrInvalidQuantity)
			}
			if p.Stock < it.Quantity {
				return errx.Conflict(fmt.Sprintf("insufficient stock for %s: %d left", p.Name, p.Stock))
			}
			lines = append(lines, pricing.Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice(), Quantity: it.Quantity})
		}

		quote, err := s.Rules.Price(lines, code, req.PointsToUse, user.Points)
		if err != nil {
			return pricingError(err)
		}

		orderItems := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", l.ProductID, l.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return errx.Conflict(fmt.Sprintf("insufficient stock for %s", l.Name))
			}

			productID := l.ProductID
			item := models.OrderItem{
				ProductID:   &productID,
				ProductName: l.Name,
				Price:       l.UnitPrice,
				Quantity:    l.Quantity,
				Total:       l.Total(),
			}
			item.ProductSnapshot = datatypesJSON(models.SnapshotOf(byID[l.ProductID]))
			orderItems = append(orderItems, item)
		}

		number, err := s.nextOrderNumber(tx)
		if err != nil {
			return err
		}
		email := req.CustomerEmail
		if email == "" {
			email = user.Email
		}
		userID := user.ID
		order = models.Order{
			OrderNumber:     number,
			UserID:          &userID,
			CustomerName:    name,
			CustomerEmail:   email,
			CustomerPhone:   phone,
			ShippingAddress: address,
			Subtotal:        quote.Subtotal,
			ShippingFee:     quote.ShippingFee,
			Discount:        quote.Discount,
			DiscountCode:    quote.DiscountCode,
			PointsUsed:      quote.PointsUsed,
			Total:           quote.Total,
			Status:          models.OrderStatusPending,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			Note:            req.Note,
			Items:           orderItems,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if quote.PointsUsed > 0 {
			if _, err := AdjustPoints(tx, user.ID, &order.ID, -quote.PointsUsed, models.PointKindRedeem,
				"Redeemed on order "+order.OrderNumber); err != nil {
				return err
			}
		}

		if fromCart {
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&cart).Update("discount_code", "").Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logx.Info().Str("order_number", order.OrderNumber).Uint("order_id", order.ID).
		Str("total", order.Total.String()).Msg("order placed")
	s.publish(ctx, events.OrderCreated, order)
	return &order, nil
}

func (s *Service) resolveShipping(tx *gorm.DB, user models.User, req PlaceOrderRequest) (name, phone, address string, err error) {
	name, phone, address = req.CustomerName, req.CustomerPhone, req.ShippingAddress
	if req.AddressID != nil {
		var a models.Address
		if err := tx.Where("id = ? AND user_id = ?", *req.AddressID, user.ID).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", "", "", errx.NotFound("address not found")
			}
			return "", "", "", err
		}
		address = a.Line()
		if name == "" {
			name = a.FullName
		}
		if phone == "" {
			phone = a.Phone
		}
	}
	if name == "" {
		name = user.FullName()
	}
	if phone == "" {
		phone = user.Phone
	}
	switch {
	case address == "":
		return "", "", "", errx.BadRequest("shipping address is required")
	case name == "":
		return "", "", "", errx.BadRequest("customer name is required")
	case phone == "":
		return "", "", "", errx.BadRequest("customer phone is required")
	}
	return name, phone, address, nil
}

// nextOrderNumber returns "ORD" + YYMMDD in shop time + 4 random digits.
func (s *Service) nextOrderNumber(tx *gorm.DB) (string, error) {
	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	prefix := "ORD" + s.now().In(loc).Format("060102")
	for attempt := 0; attempt < 10; attempt++ {
		number := fmt.Sprintf("%s%04d", prefix, rand.IntN(10000))
		var n int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return number, nil
		}
	}
	return "", errors.New("could not allocate an order number")
}

// Settlement reports what SettlePayment did.
type Settlement struct {
	Order          *models.Order
	AlreadySettled bool
	// Reinstated is set when a payment revived an order that had been
	// cancelled for non-payment.
	Reinstated bool
	// RefundRequired is set when money arrived for an order that stays
	// cancelled; it has to be refunded by hand.
	RefundRequired bool
}

// SettlePayment marks an order paid and awards cashback. It is idempotent:
// a second call for a paid order changes nothing. Money that arrives after the
// order was given up on reserves its stock and points again when they are
// still available; otherwise the payment is recorded on the cancelled order
// and flagged for a refund.
func (s *Service) SettlePayment(ctx context.Context, orderID uint, ref string) (Settlement, error) {
	var (
		order models.Order
		res   Settlement
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			res.AlreadySettled = true
			return nil
		}
		if order.Status == models.OrderStatusCancelled {
			if order.PaymentStatus == models.PaymentStatusFailed {
				ok, err := s.reinstateTx(tx, &order)
				if err != nil {
					return err
				}
				res.Reinstated = ok
			}
			if !res.Reinstated {
				res.RefundRequired = true
				return s.recordRefundTx(tx, &order, ref)
			}
		}
		return s.settleTx(tx, &order, ref)
	})
	if err != nil {
		return Settlement{}, err
	}
	res.Order = &order

	switch {
	case res.AlreadySettled:
	case res.RefundRequired:
		logx.Error().Str("order_number", order.OrderNumber).Str("payment_ref", ref).
			Msg("payment received for a cancelled order, refund required")
		s.publish(ctx, events.OrderRefundRequired, order)
	default:
		logx.Info().Str("order_number", order.OrderNumber).Int64("points_earned", order.PointsEarned).
			Bool("reinstated", res.Reinstated).Msg("order paid")
		s.publish(ctx, events.OrderPaid, order)
	}
	return res, nil
}

// reinstateTx takes stock and redeemed points again for an order cancelled for
// non-payment and reopens it. It changes nothing and reports false when any
// of them is gone.
func (s *Service) reinstateTx(tx *gorm.DB, order *models.Order) (bool, error) {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Order("product_id").Find(&items).Error; err != nil {
		return false, err
	}
	for _, it := range items {
		if it.ProductID == nil {
			return false, nil
		}
		var p models.Product
		if err := tx.Clauses(forUpdate).Select("id", "stock").First(&p, *it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if p.Stock < it.Quantity {
			return false, nil
		}
	}
	if order.PointsUsed > 0 {
		if order.UserID == nil {
			return false, nil
		}
		var user models.User
		if err := tx.Clauses(forUpdate).Select("id", "points").First(&user, *order.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if user.Points < order.PointsUsed {
			return false, nil
		}
	}

	for _, it := range items {
		if err := tx.Model(&models.Product{}).Where("id = ?", *it.ProductID).
			UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity)).Error; err != nil {
			return false, err
		}
	}
	if order.PointsUsed > 0 {
		if _, err := AdjustPoints(tx, *order.UserID, &order.ID, -order.PointsUsed, models.PointKindRedeem,
			"Points reapplied to order "+order.OrderNumber); err != nil {
			return false, err
		}
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"status":         models.OrderStatusPending,
		"payment_status": models.PaymentStatusPending,
	}).Error; err != nil {
		return false, err
	}
	order.Status = models.OrderStatusPending
	order.PaymentStatus = models.PaymentStatusPending
	order.Items = items
	return true, nil
}

// recordRefundTx stores the payment on an order that stays cancelled. No
// cashback is awarded.
func (s *Service) recordRefundTx(tx *gorm.DB, order *models.Order, ref string) error {
	now := s.now()
	updates := map[string]any{
		"payment_status": models.PaymentStatusPaid,
		"paid_at":        now,
	}
	if ref != "" {
		updates["payment_ref"] = ref
		order.PaymentRef = ref
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaidAt = &now
	return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
}

func (s *Service) settleTx(tx *gorm.DB, order *models.Order, ref string) error {
	if order.Status == models.OrderStatusCancelled {
		return errx.Conflict("order is cancelled")
	}

	now := s.now()
	var earned int64
	if order.UserID != nil {
		earned = s.Rules.Cashback(order.Total)
	}
	updates := map[string]any{
		"payment_status": models.PaymentStatusPaid,
		"paid_at":        now,
		"points_earned":  earned,
	}
	if ref != "" {
		updates["payment_ref"] = ref
	}
	if order.Status == models.OrderStatusPending {
		updates["status"] = models.OrderStatusProcessing
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.PaidAt = &now
	order.PointsEarned = earned
	if ref != "" {
		order.PaymentRef = ref
	}
	if order.Status == models.OrderStatusPending {
		order.Status = models.OrderStatusProcessing
	}

	if earned > 0 {
		if _, err := AdjustPoints(tx, *order.UserID, &order.ID, earned, models.PointKindEarn,
			"Cashback for order "+order.OrderNumber); err != nil {
			return err
		}
	}
	return nil
}

// FailPayment cancels an order whose online payment failed or expired,
// restoring stock and redeemed points. Paid or already cancelled orders are
// left alone and reported as unchanged.
func (s *Service) FailPayment(ctx context.Context, orderID uint) (*models.Order, bool, error) {
	var (
		order   models.Order
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.PaymentStatus != models.PaymentStatusPending || order.Status != models.OrderStatusPending {
			return nil
		}
		changed = true
		return s.cancelTx(tx, &order, true)
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.publish(ctx, events.OrderCancelled, order)
	}
	return &order, changed, nil
}

// Cancel cancels an order on behalf of its owner (pending orders only) or an
// admin (anything not yet shipped).
func (s *Service) Cancel(ctx context.Context, orderID, userID uint, asAdmin bool) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if !asAdmin && (order.UserID == nil || *order.UserID != userID) {
			return errx.NotFound("order not found")
		}
		switch {
		case order.Status == models.OrderStatusCancelled:
			return errx.Conflict("order is already cancelled")
		case !asAdmin && order.Status != models.OrderStatusPending:
			return errx.Conflict("only pending orders can be cancelled")
		case order.Status != models.OrderStatusPending && order.Status != models.OrderStatusProcessing:
			return errx.Conflict(fmt.Sprintf("a %s order cannot be cancelled", order.Status))
		}
		return s.cancelTx(tx, &order, false)
	})
	if err != nil {
		return nil, err
	}
	logx.Info().Str("order_number", order.OrderNumber).Bool("admin", asAdmin).Msg("order cancelled")
	s.publish(ctx, events.OrderCancelled, order)
	return &order, nil
}

// cancelTx puts reserved stock back, refunds redeemed points and takes back
// cashback already awarded.
func (s *Service) cancelTx(tx *gorm.DB, order *models.Order, failPayment bool) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", *it.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	order.Items = items

	if order.UserID != nil {
		if order.PointsUsed > 0 {
			if _, err := AdjustPoints(tx, *order.UserID, &order.ID, order.PointsUsed, models.PointKindRefund,
				"Refund for cancelled order "+order.OrderNumber); err != nil {
				return err
			}
		}
		if order.PointsEarned > 0 {
			if _, err := AdjustPoints(tx, *order.UserID, &order.ID, -order.PointsEarned, models.PointKindRevoke,
				"Cashback revoked for cancelled order "+order.OrderNumber); err != nil {
				return err
			}
		}
	}

	updates := map[string]any{"status": models.OrderStatusCancelled}
	order.Status = models.OrderStatusCancelled
	if failPayment && order.PaymentStatus != models.PaymentStatusPaid {
		updates["payment_status"] = models.PaymentStatusFailed
		order.PaymentStatus = models.PaymentStatusFailed
	}
	return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
}

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

// UpdateStatus moves an order along the fulfilment flow. Delivering an unpaid
// cash-on-delivery order settles it; online orders must be paid first.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if status == models.OrderStatusCancelled {
		return s.Cancel(ctx, orderID, 0, true)
	}

	var (
		order   models.Order
		settled bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status.Terminal() {
			return errx.Conflict(fmt.Sprintf("order is already %s", order.Status))
		}
		if order.Status == status {
			return nil
		}
		if statusRank[status] < statusRank[order.Status] {
			return errx.Conflict(fmt.Sprintf("cannot move a %s order back to %s", order.Status, status))
		}
		unpaid := order.PaymentStatus != models.PaymentStatusPaid
		if unpaid && order.PaymentMethod.Online() && status != models.OrderStatusPending {
			return errx.Conflict("order has not been paid")
		}
		if unpaid && status == models.OrderStatusDelivered {
			if err := s.settleTx(tx, &order, "cod"); err != nil {
				return err
			}
			settled = true
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled {
		s.publish(ctx, events.OrderPaid, order)
	}
	s.publish(ctx, events.OrderStatusChanged, order)
	return &order, nil
}

// ExpirePending cancels unpaid online orders created before cutoff.
func (s *Service) ExpirePending(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []uint
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND payment_status = ? AND payment_method IN ? AND created_at < ?",
			models.OrderStatusPending, models.PaymentStatusPending,
			[]models.PaymentMethod{models.PaymentMethodStripe, models.PaymentMethodVietQR}, cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, changed, err := s.FailPayment(ctx, id)
		if err != nil {
			logx.Error().Err(err).Uint("order_id", id).Msg("expire pending order")
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

func lockOrder(tx *gorm.DB, id uint, order *models.Order) error {
	if err := tx.Clauses(forUpdate).First(order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errx.NotFound("order not found")
		}
		return err
	}
	return nil
}
