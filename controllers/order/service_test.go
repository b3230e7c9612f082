package orderControllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/database"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/events"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logx.Init(logx.LoggerOpts{Environment: config.Testing})
	os.Exit(m.Run())
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	rec     *events.Recorder
	user    models.User
	racket  models.Product
	shuttle models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	f := &fixture{db: db, rec: &events.Recorder{}}
	f.svc = &Service{DB: db, Rules: pricing.DefaultRules(), Events: f.rec, Loc: time.FixedZone("UTC+7", 7*3600)}

	f.user = models.User{ExternalID: "ext-1", Email: "buyer@example.com", FirstName: "Minh", LastName: "Tran",
		Phone: "0900000000", Role: models.RoleCustomer, IsActive: true, Points: 50000}
	must(t, db.Create(&f.user).Error)

	f.racket = models.Product{Name: "Yonex Astrox 99 Pro", Slug: "yonex-astrox-99-pro", Price: decimal.NewFromInt(4500000),
		SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(3900000)), Stock: 2, IsActive: true}
	f.shuttle = models.Product{Name: "Yonex AS-50", Slug: "yonex-as-50", Price: decimal.NewFromInt(120000), Stock: 10, IsActive: true}
	must(t, db.Create(&f.racket).Error)
	must(t, db.Create(&f.shuttle).Error)
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	must(t, f.db.First(&p, id).Error)
	return p.Stock
}

func (f *fixture) points(t *testing.T) int64 {
	t.Helper()
	var u models.User
	must(t, f.db.First(&u, f.user.ID).Error)
	return u.Points
}

func (f *fixture) request(method models.PaymentMethod, items ...ItemInput) PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          f.user.ID,
		ShippingAddress: "12 Hang Bai, Hoan Kiem, Ha Noi",
		PaymentMethod:   method,
		Items:           items,
	}
}

func statusOf(err error) int {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

func TestPlaceOrderTotalsAndStock(t *testing.T) {
	f := newFixture(t)
	req := f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 2})
	req.DiscountCode = "sale10"
	req.PointsToUse = 10000

	order, err := f.svc.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	// 240000 - 24000 + 30000 - 10000
	if !order.Total.Equal(decimal.NewFromInt(236000)) {
		t.Fatalf("total = %s", order.Total)
	}
	want := order.Subtotal.Sub(order.Discount).Add(order.ShippingFee).Sub(decimal.NewFromInt(order.PointsUsed))
	if !order.Total.Equal(want) {
		t.Fatalf("total %s breaks the invariant (%s)", order.Total, want)
	}
	if len(order.OrderNumber) != len("ORD2503100001") || order.OrderNumber[:3] != "ORD" {
		t.Fatalf("order number = %q", order.OrderNumber)
	}
	if got := f.stock(t, f.shuttle.ID); got != 8 {
		t.Fatalf("stock = %d", got)
	}
	if got := f.points(t); got != 40000 {
		t.Fatalf("points = %d", got)
	}
	if order.Items[0].ProductSnapshot.Data().Slug != "yonex-as-50" {
		t.Fatalf("snapshot = %+v", order.Items[0].ProductSnapshot.Data())
	}

	var ledger []models.PointTransaction
	must(t, f.db.Where("user_id = ?", f.user.ID).Find(&ledger).Error)
	if len(ledger) != 1 || ledger[0].Kind != models.PointKindRedeem || ledger[0].Points != -10000 || ledger[0].BalanceAfter != 40000 {
		t.Fatalf("ledger = %+v", ledger)
	}
	if types := f.rec.Types(); len(types) != 1 || types[0] != events.OrderCreated {
		t.Fatalf("events = %v", types)
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	req := f.request(models.PaymentMethodCOD,
		ItemInput{ProductID: f.shuttle.ID, Quantity: 1},
		ItemInput{ProductID: f.racket.ID, Quantity: 3},
	)
	req.PointsToUse = 1000

	_, err := f.svc.PlaceOrder(context.Background(), req)
	if statusOf(err) != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := f.stock(t, f.shuttle.ID); got != 10 {
		t.Fatalf("shuttle stock changed to %d", got)
	}
	if got := f.points(t); got != 50000 {
		t.Fatalf("points changed to %d", got)
	}
	var n int64
	must(t, f.db.Model(&models.Order{}).Count(&n).Error)
	if n != 0 {
		t.Fatalf("%d orders persisted", n)
	}
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 1})
	req.DiscountCode = "NOPE"
	if _, err := f.svc.PlaceOrder(ctx, req); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("unknown code: %v", err)
	}

	req = f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 1})
	req.PointsToUse = 60000
	if _, err := f.svc.PlaceOrder(ctx, req); !errors.Is(err, pricing.ErrInsufficientPoints) {
		t.Fatalf("too many points: %v", err)
	}

	if _, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD)); !errors.Is(err, pricing.ErrEmptyCart) {
		t.Fatalf("empty cart: %v", err)
	}

	must(t, f.db.Model(&f.shuttle).Update("is_active", false).Error)
	if _, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 1})); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("inactive product: %v", err)
	}

	req = f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.racket.ID, Quantity: 1})
	req.ShippingAddress = ""
	if _, err := f.svc.PlaceOrder(ctx, req); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("missing address: %v", err)
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	f := newFixture(t)
	cart := models.Cart{UserID: f.user.ID, DiscountCode: "FREESHIP"}
	must(t, f.db.Create(&cart).Error)
	must(t, f.db.Create(&models.CartItem{CartID: cart.ID, ProductID: f.shuttle.ID, Quantity: 3}).Error)

	addr := models.Address{UserID: f.user.ID, FullName: "Tran Minh", Phone: "0911111111", Province: "Ha Noi",
		District: "Hoan Kiem", Ward: "Trang Tien", AddressDetail: "12 Hang Bai", IsDefault: true}
	must(t, f.db.Create(&addr).Error)

	req := PlaceOrderRequest{UserID: f.user.ID, AddressID: &addr.ID, PaymentMethod: models.PaymentMethodCOD}
	order, err := f.svc.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !order.ShippingFee.IsZero() || order.DiscountCode != "FREESHIP" {
		t.Fatalf("shipping=%s code=%s", order.ShippingFee, order.DiscountCode)
	}
	if order.CustomerName != "Tran Minh" || order.ShippingAddress != "12 Hang Bai, Trang Tien, Hoan Kiem, Ha Noi" {
		t.Fatalf("shipping details = %q / %q", order.CustomerName, order.ShippingAddress)
	}

	var items int64
	must(t, f.db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&items).Error)
	if items != 0 {
		t.Fatalf("cart still has %d items", items)
	}
}

func TestSettlePaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodStripe, ItemInput{ProductID: f.racket.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	first, err := f.svc.SettlePayment(ctx, order.ID, "pi_1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if first.AlreadySettled || first.Order.Status != models.OrderStatusProcessing || first.Order.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("first settle = %+v", first.Order)
	}
	// 15% of 3,900,000
	if first.Order.PointsEarned != 585000 {
		t.Fatalf("earned = %d", first.Order.PointsEarned)
	}

	second, err := f.svc.SettlePayment(ctx, order.ID, "pi_1")
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if !second.AlreadySettled {
		t.Fatal("second settle should be a no-op")
	}
	if got := f.points(t); got != 50000+585000 {
		t.Fatalf("points = %d", got)
	}
	var paid int
	for _, ty := range f.rec.Types() {
		if ty == events.OrderPaid {
			paid++
		}
	}
	if paid != 1 {
		t.Fatalf("order.paid published %d times", paid)
	}
}

func TestFailPaymentRestoresStockAndPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request(models.PaymentMethodStripe, ItemInput{ProductID: f.racket.ID, Quantity: 2})
	req.PointsToUse = 50000
	order, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if f.stock(t, f.racket.ID) != 0 || f.points(t) != 0 {
		t.Fatal("stock and points should be reserved")
	}

	failed, changed, err := f.svc.FailPayment(ctx, order.ID)
	if err != nil || !changed {
		t.Fatalf("fail = %v, %v", changed, err)
	}
	if failed.Status != models.OrderStatusCancelled || failed.PaymentStatus != models.PaymentStatusFailed {
		t.Fatalf("order = %s/%s", failed.Status, failed.PaymentStatus)
	}
	if got := f.stock(t, f.racket.ID); got != 2 {
		t.Fatalf("stock = %d", got)
	}
	if got := f.points(t); got != 50000 {
		t.Fatalf("points = %d", got)
	}

	if _, changed, _ := f.svc.FailPayment(ctx, order.ID); changed {
		t.Fatal("second failure should not change anything")
	}
}

func TestLatePaymentReopensFailedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request(models.PaymentMethodStripe, ItemInput{ProductID: f.racket.ID, Quantity: 2})
	req.PointsToUse = 50000
	order, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, _, err := f.svc.FailPayment(ctx, order.ID); err != nil {
		t.Fatalf("fail: %v", err)
	}

	res, err := f.svc.SettlePayment(ctx, order.ID, "pi_retry")
	if err != nil {
		t.Fatalf("late settle: %v", err)
	}
	if !res.Reinstated || res.RefundRequired {
		t.Fatalf("settlement = %+v", res)
	}
	if res.Order.Status != models.OrderStatusProcessing || res.Order.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("order = %s/%s", res.Order.Status, res.Order.PaymentStatus)
	}
	if got := f.stock(t, f.racket.ID); got != 0 {
		t.Fatalf("stock = %d, should be reserved again", got)
	}
	// 50000 redeemed again, then 15% cashback on 7,750,000
	if got := f.points(t); got != 1162500 {
		t.Fatalf("points = %d", got)
	}
	types := f.rec.Types()
	if types[len(types)-1] != events.OrderPaid {
		t.Fatalf("events = %v", types)
	}
}

func TestLatePaymentWithoutStockRequiresRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodVietQR, ItemInput{ProductID: f.racket.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if n, err := f.svc.ExpirePending(ctx, time.Now().Add(time.Hour)); err != nil || n != 1 {
		t.Fatalf("expire = %d, %v", n, err)
	}
	if _, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.racket.ID, Quantity: 2})); err != nil {
		t.Fatalf("second buyer: %v", err)
	}

	res, err := f.svc.SettlePayment(ctx, order.ID, "FT2503100001")
	if err != nil {
		t.Fatalf("late settle: %v", err)
	}
	if !res.RefundRequired || res.Reinstated {
		t.Fatalf("settlement = %+v", res)
	}
	var got models.Order
	must(t, f.db.First(&got, order.ID).Error)
	if got.Status != models.OrderStatusCancelled || got.PaymentStatus != models.PaymentStatusPaid ||
		got.PaymentRef != "FT2503100001" || got.PointsEarned != 0 {
		t.Fatalf("order = %+v", got)
	}
	if got := f.stock(t, f.racket.ID); got != 0 {
		t.Fatalf("stock = %d", got)
	}
	if got := f.points(t); got != 50000 {
		t.Fatalf("points = %d, no cashback on a refunded order", got)
	}
	types := f.rec.Types()
	if types[len(types)-1] != events.OrderRefundRequired {
		t.Fatalf("events = %v", types)
	}

	again, err := f.svc.SettlePayment(ctx, order.ID, "FT2503100001")
	if err != nil || !again.AlreadySettled {
		t.Fatalf("redelivery = %+v, %v", again, err)
	}
}

func TestPaymentAfterCustomerCancelRequiresRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodStripe, ItemInput{ProductID: f.shuttle.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID, f.user.ID, false); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	res, err := f.svc.SettlePayment(ctx, order.ID, "pi_late")
	if err != nil || !res.RefundRequired {
		t.Fatalf("settlement = %+v, %v", res, err)
	}
	if got := f.stock(t, f.shuttle.ID); got != 10 {
		t.Fatalf("stock = %d, a cancelled order stays released", got)
	}
}

func TestPlaceOrderFromCartDropsRetiredCode(t *testing.T) {
	f := newFixture(t)
	cart := models.Cart{UserID: f.user.ID, DiscountCode: "SUMMER50"}
	must(t, f.db.Create(&cart).Error)
	must(t, f.db.Create(&models.CartItem{CartID: cart.ID, ProductID: f.shuttle.ID, Quantity: 3}).Error)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, ShippingAddress: "12 Hang Bai, Ha Noi", PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	// 360000 + 30000 shipping, no discount
	if order.DiscountCode != "" || !order.Total.Equal(decimal.NewFromInt(390000)) {
		t.Fatalf("code=%q total=%s", order.DiscountCode, order.Total)
	}

	// a code the client sends explicitly is still checked
	must(t, f.db.Create(&models.CartItem{CartID: cart.ID, ProductID: f.shuttle.ID, Quantity: 1}).Error)
	_, err = f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, ShippingAddress: "12 Hang Bai, Ha Noi", PaymentMethod: models.PaymentMethodCOD, DiscountCode: "SUMMER50",
	})
	if statusOf(err) != http.StatusBadRequest {
		t.Fatalf("explicit unknown code: %v", err)
	}
}

func TestCancelPaidOrderRevokesCashback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodStripe, ItemInput{ProductID: f.shuttle.ID, Quantity: 5}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.svc.SettlePayment(ctx, order.ID, "pi_2"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, order.ID, f.user.ID, false); statusOf(err) != http.StatusConflict {
		t.Fatalf("customer cancelling a processing order: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID, 0, true); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if got := f.points(t); got != 50000 {
		t.Fatalf("points = %d, cashback should be revoked", got)
	}
	if got := f.stock(t, f.shuttle.ID); got != 10 {
		t.Fatalf("stock = %d", got)
	}
}

func TestCancelChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID, f.user.ID+100, false); statusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign cancel: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID, f.user.ID, false); err != nil {
		t.Fatalf("own cancel: %v", err)
	}
}

func TestUpdateStatusDeliversCOD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 5}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	delivered, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.PaymentStatus != models.PaymentStatusPaid || delivered.PointsEarned != 90000 {
		t.Fatalf("delivered = %s, earned %d", delivered.PaymentStatus, delivered.PointsEarned)
	}
	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusShipped); statusOf(err) != http.StatusConflict {
		t.Fatalf("changing a delivered order: %v", err)
	}
}

func TestUpdateStatusRequiresOnlinePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodVietQR, ItemInput{ProductID: f.shuttle.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusShipped); statusOf(err) != http.StatusConflict {
		t.Fatalf("shipping an unpaid transfer order: %v", err)
	}
}

func TestExpirePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodVietQR, ItemInput{ProductID: f.shuttle.ID, Quantity: 4}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	cod, err := f.svc.PlaceOrder(ctx, f.request(models.PaymentMethodCOD, ItemInput{ProductID: f.shuttle.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	must(t, f.db.Model(&models.Order{}).Where("id IN ?", []uint{stale.ID, cod.ID}).UpdateColumn("created_at", old).Error)

	n, err := f.svc.ExpirePending(ctx, time.Now().Add(-48*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expired = %d, %v", n, err)
	}
	if got := f.stock(t, f.shuttle.ID); got != 9 {
		t.Fatalf("stock = %d", got)
	}
	var kept models.Order
	must(t, f.db.First(&kept, cod.ID).Error)
	if kept.Status != models.OrderStatusPending {
		t.Fatalf("cod order status = %s", kept.Status)
	}
}
