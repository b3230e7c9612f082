package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/events"
)

func TestCompose(t *testing.T) {
	base := events.Event{
		OrderNumber:   "ORD2503100001",
		CustomerName:  "Lan",
		CustomerEmail: "lan@example.com",
		Total:         decimal.NewFromInt(390000),
		PaymentMethod: "vietqr",
	}

	paid := base
	paid.Type = events.OrderPaid
	paid.PointsEarned = 58500
	n, ok := compose(paid)
	if !ok || n.To != "lan@example.com" || !strings.Contains(n.Body, "58500 points") || !strings.Contains(n.Body, "390000 VND") {
		t.Fatalf("paid = %+v", n)
	}

	shipped := base
	shipped.Type = events.OrderStatusChanged
	shipped.Status = "shipped"
	if n, _ := compose(shipped); n.Subject != "Order ORD2503100001 is shipped" {
		t.Fatalf("subject = %q", n.Subject)
	}

	refund := base
	refund.Type = events.OrderRefundRequired
	if n, ok := compose(refund); !ok || !strings.Contains(n.Body, "refunded") {
		t.Fatalf("refund = %+v", n)
	}

	anonymous := base
	anonymous.Type = events.OrderCreated
	anonymous.CustomerEmail = ""
	if _, ok := compose(anonymous); ok {
		t.Fatal("notification without recipient")
	}

	unknown := base
	unknown.Type = "order.refunded"
	if _, ok := compose(unknown); ok {
		t.Fatal("notification for unknown event")
	}
}
