package analyticsControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/tienchung1704/real-dinhanstore/analytics"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/database"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logx.Init(logx.LoggerOpts{Environment: config.Testing})
	os.Exit(m.Run())
}

func newReports(t *testing.T) (*Reports, *gin.Engine) {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	loc := analytics.Zone(7)
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, loc)
	rp := &Reports{DB: db, Loc: loc, LowStockThreshold: 5, Now: func() time.Time { return now }}

	mk := func(n string, total int64, status models.OrderStatus, pay models.PaymentStatus, at time.Time) {
		o := models.Order{OrderNumber: n, CustomerName: "A", CustomerEmail: "a@b.c", CustomerPhone: "1", ShippingAddress: "x",
			Subtotal: decimal.NewFromInt(total), Total: decimal.NewFromInt(total), Status: status,
			PaymentMethod: models.PaymentMethodCOD, PaymentStatus: pay, CreatedAt: at}
		if pay == models.PaymentStatusPaid {
			o.PaidAt = &at
		}
		if err := db.Create(&o).Error; err != nil {
			t.Fatal(err)
		}
	}
	mk("ORD1", 500000, models.OrderStatusDelivered, models.PaymentStatusPaid, now.Add(-time.Hour))
	mk("ORD2", 300000, models.OrderStatusPending, models.PaymentStatusPending, now.Add(-2*time.Hour))
	// 23:30 local on the 8th is the 8th, even though it is the 8th 16:30 UTC.
	mk("ORD3", 200000, models.OrderStatusProcessing, models.PaymentStatusPaid, time.Date(2025, 3, 8, 23, 30, 0, 0, loc))
	mk("ORD4", 999000, models.OrderStatusCancelled, models.PaymentStatusFailed, now.Add(-3*time.Hour))
	mk("ORD5", 100000, models.OrderStatusDelivered, models.PaymentStatusPaid, time.Date(2025, 2, 1, 9, 0, 0, 0, loc))

	db.Create(&models.Product{Name: "Low", Slug: "low", Price: decimal.NewFromInt(1), Stock: 2, IsActive: true})
	db.Create(&models.Product{Name: "Plenty", Slug: "plenty", Price: decimal.NewFromInt(1), Stock: 50, IsActive: true})

	r := gin.New()
	r.GET("/revenue", rp.Revenue())
	r.GET("/revenue/export", rp.ExportRevenue())
	r.GET("/dashboard", rp.Dashboard())
	return rp, r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRevenueDefaultSevenDays(t *testing.T) {
	_, r := newReports(t)
	w := get(r, "/revenue")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var rep analytics.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Days) != 7 || rep.StartDate != "2025-03-04" || rep.EndDate != "2025-03-10" {
		t.Fatalf("range = %s..%s (%d days)", rep.StartDate, rep.EndDate, len(rep.Days))
	}
	if rep.Summary.TotalOrders != 3 || !rep.Summary.TotalRevenue.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if rep.Days[4].Date != "2025-03-08" || rep.Days[4].Orders != 1 {
		t.Fatalf("day bucket = %+v", rep.Days[4])
	}
}

func TestRevenuePaidOnlyAndMonth(t *testing.T) {
	_, r := newReports(t)
	var rep analytics.Report
	_ = json.Unmarshal(get(r, "/revenue?period=today&paid_only=true").Body.Bytes(), &rep)
	if rep.Summary.TotalOrders != 1 || !rep.Summary.TotalRevenue.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("paid today = %+v", rep.Summary)
	}

	_ = json.Unmarshal(get(r, "/revenue?period=month&month=2025-02").Body.Bytes(), &rep)
	if len(rep.Days) != 28 || rep.Summary.TotalOrders != 1 {
		t.Fatalf("february = %d days, %+v", len(rep.Days), rep.Summary)
	}

	if w := get(r, "/revenue?period=custom&startDate=2025-03-10"); w.Code != http.StatusBadRequest {
		t.Fatalf("custom without end: %d", w.Code)
	}
	if w := get(r, "/revenue?period=month"); w.Code != http.StatusBadRequest {
		t.Fatalf("month without value: %d", w.Code)
	}
}

func TestExportRevenue(t *testing.T) {
	_, r := newReports(t)
	w := get(r, "/revenue/export?period=3days")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	body := w.Body.Bytes()
	file, err := xlsx.OpenBinary(body)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rows := file.Sheets[0].Rows
	// header + 3 days + total + average
	if len(rows) != 6 || rows[4].Cells[0].Value != "Total" {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestDashboard(t *testing.T) {
	_, r := newReports(t)
	w := get(r, "/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var d Dashboard
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Orders != 5 || d.PendingOrders != 1 || d.Products != 2 {
		t.Fatalf("counts = %+v", d)
	}
	if !d.PaidRevenue.Equal(decimal.NewFromInt(800000)) || !d.TodayRevenue.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("revenue = %s today %s", d.PaidRevenue, d.TodayRevenue)
	}
	if len(d.LowStock) != 1 || d.LowStock[0].Slug != "low" {
		t.Fatalf("low stock = %+v", d.LowStock)
	}
	if d.StatusBreakdown["cancelled"] != 1 {
		t.Fatalf("breakdown = %v", d.StatusBreakdown)
	}
}
