package orderControllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func TestConfirmTransferHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	order, err := f.svc.PlaceOrder(context.Background(), f.request(models.PaymentMethodVietQR, ItemInput{ProductID: f.shuttle.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	r := gin.New()
	r.POST("/admin/orders/:orderID/confirm-transfer", ConfirmTransferHandler(f.svc))
	path := fmt.Sprintf("/admin/orders/%d/confirm-transfer", order.ID)
	confirm := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := confirm(`{"reference": FT25`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d %s", w.Code, w.Body)
	}
	var got models.Order
	must(t, f.db.First(&got, order.ID).Error)
	if got.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("malformed body settled the order")
	}

	if w := confirm(""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Payment confirmed") {
		t.Fatalf("empty body: %d %s", w.Code, w.Body)
	}
	must(t, f.db.First(&got, order.ID).Error)
	if got.PaymentStatus != models.PaymentStatusPaid || got.PaymentRef != "vietqr" {
		t.Fatalf("order = %s ref=%s", got.PaymentStatus, got.PaymentRef)
	}
	if w := confirm(`{"reference":"FT2503100009"}`); !strings.Contains(w.Body.String(), "Already processed") {
		t.Fatalf("repeat: %s", w.Body)
	}
}
