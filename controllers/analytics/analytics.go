package analyticsControllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/tienchung1704/real-dinhanstore/analytics"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

// Reports serves the admin dashboard. Day boundaries are taken in Loc.
type Reports struct {
	DB                *gorm.DB
	Loc               *time.Location
	LowStockThreshold int
	Now               func() time.Time
}

func (rp *Reports) now() time.Time {
	if rp.Now != nil {
		return rp.Now()
	}
	return time.Now()
}

func (rp *Reports) report(ctx context.Context, c *gin.Context) (analytics.Report, error) {
	r, err := analytics.ResolveRange(c.Query("period"), c.Query("startDate"), c.Query("endDate"), c.Query("month"),
		rp.now(), rp.Loc)
	if err != nil {
		return analytics.Report{}, errx.Invalid(err)
	}
	paidOnly, _ := strconv.ParseBool(c.Query("paid_only"))

	var orders []models.Order
	if err := rp.DB.WithContext(ctx).
		Select("id", "total", "status", "payment_status", "created_at").
		Where("created_at >= ? AND created_at < ? AND status <> ?", r.Start, r.End, models.OrderStatusCancelled).
		Find(&orders).Error; err != nil {
		return analytics.Report{}, err
	}
	return analytics.BuildReport(r, orders, analytics.Options{PaidOnly: paidOnly}), nil
}

// GET /admin/analytics/revenue?period=today|yesterday|3days|7days|custom|month
func (rp *Reports) Revenue() gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := rp.report(c.Request.Context(), c)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// GET /admin/analytics/revenue/export takes the same parameters as Revenue
// and returns the report as a spreadsheet.
func (rp *Reports) ExportRevenue() gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := rp.report(c.Request.Context(), c)
		if err != nil {
			errx.Respond(c, err)
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Revenue")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}
		header := sheet.AddRow()
		for _, h := range []string{"Date", "Orders", "Revenue"} {
			header.AddCell().SetValue(h)
		}
		for _, d := range rep.Days {
			row := sheet.AddRow()
			row.AddCell().SetValue(d.Date)
			row.AddCell().SetValue(d.Orders)
			row.AddCell().SetFloat(d.Revenue.InexactFloat64())
		}
		total := sheet.AddRow()
		total.AddCell().SetValue("Total")
		total.AddCell().SetValue(rep.Summary.TotalOrders)
		total.AddCell().SetFloat(rep.Summary.TotalRevenue.InexactFloat64())
		avg := sheet.AddRow()
		avg.AddCell().SetValue("Average order value")
		avg.AddCell()
		avg.AddCell().SetFloat(rep.Summary.AvgOrderValue.InexactFloat64())

		name := fmt.Sprintf("revenue_%s_%s.xlsx", rep.StartDate, rep.EndDate)
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

type Dashboard struct {
	Products        int64            `json:"products"`
	ActiveProducts  int64            `json:"active_products"`
	Users           int64            `json:"users"`
	Orders          int64            `json:"orders"`
	PendingOrders   int64            `json:"pending_orders"`
	PaidRevenue     decimal.Decimal  `json:"paid_revenue"`
	TodayRevenue    decimal.Decimal  `json:"today_revenue"`
	LowStock        []models.Product `json:"low_stock"`
	RecentOrders    []models.Order   `json:"recent_orders"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
}

func (rp *Reports) sumPaid(q *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := q.Model(&models.Order{}).
		Where("payment_status = ? AND status <> ?", models.PaymentStatusPaid, models.OrderStatusCancelled).
		Select("SUM(total)").Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

// GET /admin/dashboard
func (rp *Reports) Dashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := rp.DB.WithContext(c.Request.Context())
		d := Dashboard{StatusBreakdown: map[string]int64{}}

		counts := []struct {
			dst *int64
			q   *gorm.DB
		}{
			{&d.Products, db.Model(&models.Product{})},
			{&d.ActiveProducts, db.Model(&models.Product{}).Where("is_active = ?", true)},
			{&d.Users, db.Model(&models.User{})},
			{&d.Orders, db.Model(&models.Order{})},
			{&d.PendingOrders, db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending)},
		}
		for _, ct := range counts {
			if err := ct.q.Count(ct.dst).Error; err != nil {
				errx.Respond(c, err)
				return
			}
		}

		var err error
		if d.PaidRevenue, err = rp.sumPaid(db); err != nil {
			errx.Respond(c, err)
			return
		}
		today, err := analytics.ResolveRange(analytics.PeriodToday, "", "", "", rp.now(), rp.Loc)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		if d.TodayRevenue, err = rp.sumPaid(db.Where("paid_at >= ? AND paid_at < ?", today.Start, today.End)); err != nil {
			errx.Respond(c, err)
			return
		}

		var statuses []struct {
			Status string
			Count  int64
		}
		if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&statuses).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		for _, s := range statuses {
			d.StatusBreakdown[s.Status] = s.Count
		}

		if err := db.Where("is_active = ? AND stock <= ?", true, rp.LowStockThreshold).
			Order("stock").Order("name").Limit(10).Find(&d.LowStock).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		if err := db.Order("created_at DESC").Limit(5).Find(&d.RecentOrders).Error; err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}
