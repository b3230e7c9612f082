package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/models"
)

var vn = Zone(7)

// 2025-03-10 01:30 in UTC+7, still 2025-03-09 in UTC.
var now = time.Date(2025, 3, 9, 18, 30, 0, 0, time.UTC)

func TestResolveRangeUsesShopTimezone(t *testing.T) {
	r, err := ResolveRange(PeriodToday, "", "", "", now, vn)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Start.Format("2006-01-02"); got != "2025-03-10" {
		t.Fatalf("today starts %s", got)
	}
	if len(r.Days()) != 1 {
		t.Fatalf("days = %d", len(r.Days()))
	}
}

func TestResolveRangeDefaultsToSevenDays(t *testing.T) {
	r, err := ResolveRange("", "", "", "", now, vn)
	if err != nil {
		t.Fatal(err)
	}
	if r.Period != Period7Days || len(r.Days()) != 7 {
		t.Fatalf("period=%s days=%d", r.Period, len(r.Days()))
	}
	if got := r.Start.Format("2006-01-02"); got != "2025-03-04" {
		t.Fatalf("start = %s", got)
	}
}

func TestResolveRangeMonthAndCustom(t *testing.T) {
	r, err := ResolveRange(PeriodMonth, "", "", "2024-02", now, vn)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days()) != 29 {
		t.Fatalf("feb 2024 days = %d", len(r.Days()))
	}

	r, err = ResolveRange(PeriodCustom, "2025-01-30", "2025-02-02", "", now, vn)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days()) != 4 {
		t.Fatalf("custom days = %d", len(r.Days()))
	}

	if _, err := ResolveRange(PeriodCustom, "2025-02-02", "2025-01-30", "", now, vn); !errors.Is(err, ErrBadRange) {
		t.Fatalf("reversed range: %v", err)
	}
	if _, err := ResolveRange(PeriodCustom, "", "", "", now, vn); !errors.Is(err, ErrMissingDates) {
		t.Fatalf("missing dates: %v", err)
	}
	if _, err := ResolveRange(PeriodMonth, "", "", "", now, vn); !errors.Is(err, ErrMissingMonth) {
		t.Fatalf("missing month: %v", err)
	}
	if _, err := ResolveRange(PeriodCustom, "2020-01-01", "2025-01-01", "", now, vn); !errors.Is(err, ErrRangeTooLong) {
		t.Fatalf("long range: %v", err)
	}
}

func order(at time.Time, total int64, status models.OrderStatus, pay models.PaymentStatus) models.Order {
	return models.Order{CreatedAt: at, Total: decimal.NewFromInt(total), Status: status, PaymentStatus: pay}
}

func TestBuildReport(t *testing.T) {
	r, err := ResolveRange(Period3Days, "", "", "", now, vn)
	if err != nil {
		t.Fatal(err)
	}
	orders := []models.Order{
		// 2025-03-09 23:00 local
		order(time.Date(2025, 3, 9, 16, 0, 0, 0, time.UTC), 300000, models.OrderStatusProcessing, models.PaymentStatusPaid),
		// 2025-03-10 00:30 local, same UTC date as the one above
		order(time.Date(2025, 3, 9, 17, 30, 0, 0, time.UTC), 100000, models.OrderStatusPending, models.PaymentStatusPending),
		order(time.Date(2025, 3, 9, 17, 45, 0, 0, time.UTC), 999999, models.OrderStatusCancelled, models.PaymentStatusPending),
		// outside the range
		order(time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC), 500000, models.OrderStatusDelivered, models.PaymentStatusPaid),
	}

	rep := BuildReport(r, orders, Options{})
	if len(rep.Days) != 3 {
		t.Fatalf("days = %d", len(rep.Days))
	}
	if rep.Days[0].Date != "2025-03-08" || rep.Days[0].Orders != 0 || !rep.Days[0].Revenue.IsZero() {
		t.Fatalf("empty day = %+v", rep.Days[0])
	}
	if rep.Days[1].Orders != 1 || !rep.Days[1].Revenue.Equal(decimal.NewFromInt(300000)) {
		t.Fatalf("day 2 = %+v", rep.Days[1])
	}
	if rep.Days[2].Orders != 1 || !rep.Days[2].Revenue.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("day 3 = %+v", rep.Days[2])
	}
	if rep.Summary.TotalOrders != 2 || !rep.Summary.TotalRevenue.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if !rep.Summary.AvgOrderValue.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("avg = %s", rep.Summary.AvgOrderValue)
	}
	if rep.EndDate != "2025-03-10" {
		t.Fatalf("end date = %s", rep.EndDate)
	}

	paid := BuildReport(r, orders, Options{PaidOnly: true})
	if paid.Summary.TotalOrders != 1 {
		t.Fatalf("paid-only orders = %d", paid.Summary.TotalOrders)
	}
}
