// Package analytics turns orders into revenue reports bucketed by local day.
package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/models"
)

const dateLayout = "2006-01-02"

// maxSpanDays bounds custom ranges so a report never allocates unbounded buckets.
const maxSpanDays = 366

var (
	ErrMissingDates = errors.New("startDate and endDate are required for a custom range")
	ErrMissingMonth = errors.New("month is required, format YYYY-MM")
	ErrBadRange     = errors.New("endDate must not be before startDate")
	ErrRangeTooLong = fmt.Errorf("range must not exceed %d days", maxSpanDays)
)

const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	Period3Days     = "3days"
	Period7Days     = "7days"
	PeriodCustom    = "custom"
	PeriodMonth     = "month"
)

// Zone returns the fixed shop timezone for an offset in hours.
func Zone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// Range is a half-open interval [Start, End) of whole days in Loc.
type Range struct {
	Period string
	Start  time.Time
	End    time.Time
	Loc    *time.Location
}

// Days lists the local midnight of each day in the range.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ResolveRange maps a period name and its parameters to a day range in loc.
// Unknown or empty periods fall back to the last seven days.
func ResolveRange(period, startDate, endDate, month string, now time.Time, loc *time.Location) (Range, error) {
	today := midnight(now, loc)
	tomorrow := today.AddDate(0, 0, 1)

	switch period {
	case PeriodToday:
		return Range{Period: period, Start: today, End: tomorrow, Loc: loc}, nil
	case PeriodYesterday:
		return Range{Period: period, Start: today.AddDate(0, 0, -1), End: today, Loc: loc}, nil
	case Period3Days:
		return Range{Period: period, Start: today.AddDate(0, 0, -2), End: tomorrow, Loc: loc}, nil
	case PeriodCustom:
		if startDate == "" || endDate == "" {
			return Range{}, ErrMissingDates
		}
		start, err := time.ParseInLocation(dateLayout, startDate, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid startDate %q: %w", startDate, err)
		}
		end, err := time.ParseInLocation(dateLayout, endDate, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid endDate %q: %w", endDate, err)
		}
		if end.Before(start) {
			return Range{}, ErrBadRange
		}
		end = end.AddDate(0, 0, 1)
		if end.Sub(start) > maxSpanDays*24*time.Hour {
			return Range{}, ErrRangeTooLong
		}
		return Range{Period: period, Start: start, End: end, Loc: loc}, nil
	case PeriodMonth:
		if month == "" {
			return Range{}, ErrMissingMonth
		}
		start, err := time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid month %q: %w", month, err)
		}
		return Range{Period: period, Start: start, End: start.AddDate(0, 1, 0), Loc: loc}, nil
	default:
		return Range{Period: Period7Days, Start: today.AddDate(0, 0, -6), End: tomorrow, Loc: loc}, nil
	}
}

type DayBucket struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Summary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

type Report struct {
	Period    string      `json:"period"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"` // inclusive
	Days      []DayBucket `json:"days"`
	Summary   Summary     `json:"summary"`
}

type Options struct {
	PaidOnly bool
}

// Counts reports whether an order contributes to revenue.
func (o Options) Counts(order models.Order) bool {
	if order.Status == models.OrderStatusCancelled {
		return false
	}
	return !o.PaidOnly || order.PaymentStatus == models.PaymentStatusPaid
}

// BuildReport buckets orders into every day of r. Days without orders are
// present with zero values; orders outside r are ignored.
func BuildReport(r Range, orders []models.Order, opts Options) Report {
	days := r.Days()
	rep := Report{
		Period:    r.Period,
		StartDate: r.Start.Format(dateLayout),
		EndDate:   r.End.AddDate(0, 0, -1).Format(dateLayout),
		Days:      make([]DayBucket, len(days)),
		Summary:   Summary{TotalRevenue: decimal.Zero, AvgOrderValue: decimal.Zero},
	}
	index := make(map[string]int, len(days))
	for i, d := range days {
		key := d.Format(dateLayout)
		rep.Days[i] = DayBucket{Date: key, Revenue: decimal.Zero}
		index[key] = i
	}

	for _, o := range orders {
		if !opts.Counts(o) {
			continue
		}
		i, ok := index[o.CreatedAt.In(r.Loc).Format(dateLayout)]
		if !ok {
			continue
		}
		rep.Days[i].Revenue = rep.Days[i].Revenue.Add(o.Total)
		rep.Days[i].Orders++
		rep.Summary.TotalRevenue = rep.Summary.TotalRevenue.Add(o.Total)
		rep.Summary.TotalOrders++
	}

	if rep.Summary.TotalOrders > 0 {
		rep.Summary.AvgOrderValue = rep.Summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(rep.Summary.TotalOrders))).Round(0)
	}
	return rep
}
