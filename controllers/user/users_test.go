package userControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/database"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logx.Init(logx.LoggerOpts{Environment: config.Testing})
	os.Exit(m.Run())
}

func setup(t *testing.T) (*gorm.DB, *gin.Engine, models.User) {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	user := models.User{ExternalID: "u", Email: "khanh@example.com", FirstName: "Khanh", Role: models.RoleCustomer, IsActive: true, Points: 1200}
	db.Create(&user)

	r := gin.New()
	g := r.Group("/user", func(c *gin.Context) { c.Set("user_id", user.ID) })
	g.GET("/me", GetUser(db))
	g.PUT("/me", UpdateUser(db))
	g.GET("/role", GetRole(db))
	g.GET("/points", GetPoints(db))
	g.GET("/purchase-history", GetPurchaseHistory(db))
	r.GET("/admin/users", GetAllUsers(db))
	return db, r, user
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateUserOnlyTouchesGivenFields(t *testing.T) {
	_, r, _ := setup(t)
	phone := " 0912345678 "
	w := serve(r, http.MethodPut, "/user/me", UpdateUserInput{Phone: &phone})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var u models.User
	_ = json.Unmarshal(w.Body.Bytes(), &u)
	if u.Phone != "0912345678" || u.FirstName != "Khanh" || u.Points != 1200 {
		t.Fatalf("user = %+v", u)
	}
}

func TestRoleAndPoints(t *testing.T) {
	db, r, user := setup(t)
	oid := uint(7)
	db.Create(&models.PointTransaction{UserID: user.ID, OrderID: &oid, Kind: models.PointKindEarn, Points: 1500, BalanceAfter: 1500})
	db.Create(&models.PointTransaction{UserID: user.ID, Kind: models.PointKindRedeem, Points: -300, BalanceAfter: 1200})

	var role map[string]any
	_ = json.Unmarshal(serve(r, http.MethodGet, "/user/role", nil).Body.Bytes(), &role)
	if role["role"] != "customer" || role["is_admin"] != false {
		t.Fatalf("role = %v", role)
	}

	var pts struct {
		Points       int64                     `json:"points"`
		Transactions []models.PointTransaction `json:"transactions"`
	}
	_ = json.Unmarshal(serve(r, http.MethodGet, "/user/points", nil).Body.Bytes(), &pts)
	if pts.Points != 1200 || len(pts.Transactions) != 2 || pts.Transactions[0].Kind != models.PointKindRedeem {
		t.Fatalf("points = %+v", pts)
	}
}

func TestPurchaseHistory(t *testing.T) {
	db, _, user := setup(t)
	mkProduct := func(slug string, active bool) models.Product {
		p := models.Product{Name: slug, Slug: slug, Price: decimal.NewFromInt(100), Stock: 10, IsActive: true}
		db.Create(&p)
		if !active {
			db.Model(&p).Update("is_active", false)
		}
		return p
	}
	grip, shuttle, retired := mkProduct("grip", true), mkProduct("shuttle", true), mkProduct("retired", false)

	n := 0
	mkOrder := func(status models.OrderStatus, items map[uint]int) {
		n++
		o := models.Order{OrderNumber: "ORD" + time.Now().Format("150405") + string(rune('A'+n)), UserID: &user.ID,
			CustomerName: "K", CustomerEmail: "k@x.y", CustomerPhone: "1", ShippingAddress: "x",
			Status: status, PaymentMethod: models.PaymentMethodCOD, PaymentStatus: models.PaymentStatusPending}
		for id, q := range items {
			pid := id
			o.Items = append(o.Items, models.OrderItem{ProductID: &pid, ProductName: "p", Price: decimal.NewFromInt(100),
				Quantity: q, Total: decimal.NewFromInt(int64(100 * q))})
		}
		if err := db.Create(&o).Error; err != nil {
			t.Fatal(err)
		}
	}
	mkOrder(models.OrderStatusDelivered, map[uint]int{grip.ID: 2, shuttle.ID: 5})
	mkOrder(models.OrderStatusProcessing, map[uint]int{grip.ID: 1, retired.ID: 9})
	mkOrder(models.OrderStatusCancelled, map[uint]int{grip.ID: 50})

	got, err := PurchaseHistory(db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Product.Slug != "shuttle" || got[1].Quantity != 3 {
		t.Fatalf("history = %+v", got)
	}
	if !got[1].TotalSpent.Equal(decimal.NewFromInt(300)) || got[0].LastPurchased.IsZero() {
		t.Fatalf("aggregates = %+v", got[1])
	}
}

func TestGetAllUsersSearch(t *testing.T) {
	db, r, _ := setup(t)
	db.Create(&models.User{ExternalID: "v", Email: "vy@example.com", FirstName: "Vy", IsActive: true})

	var out struct {
		Users []models.User `json:"users"`
	}
	_ = json.Unmarshal(serve(r, http.MethodGet, "/admin/users?search=KHANH", nil).Body.Bytes(), &out)
	if len(out.Users) != 1 || out.Users[0].Email != "khanh@example.com" {
		t.Fatalf("users = %+v", out.Users)
	}
}
