// Package pricing computes cart and order totals: discount codes, the
// free-shipping threshold, loyalty point redemption and cashback.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrUnknownDiscount    = errors.New("invalid discount code")
	ErrNegativePoints     = errors.New("points must not be negative")
	ErrInsufficientPoints = errors.New("not enough points")
)

var hundred = decimal.NewFromInt(100)

type DiscountCode struct {
	Code         string `json:"code"`
	Percent      int    `json:"percent"`
	FreeShipping bool   `json:"free_shipping"`
}

type Rules struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	CashbackRate          decimal.Decimal
	Codes                 map[string]DiscountCode // keyed by upper-case code
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromInt(500000),
		ShippingFee:           decimal.NewFromInt(30000),
		CashbackRate:          decimal.RequireFromString("0.15"),
		Codes: map[string]DiscountCode{
			"SALE10":   {Code: "SALE10", Percent: 10},
			"SALE20":   {Code: "SALE20", Percent: 20},
			"SALE30":   {Code: "SALE30", Percent: 30},
			"FREESHIP": {Code: "FREESHIP", FreeShipping: true},
		},
	}
}

// LookupDiscount resolves a code case-insensitively. An empty code is not an
// error and yields the zero DiscountCode.
func (r Rules) LookupDiscount(code string) (DiscountCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DiscountCode{}, nil
	}
	dc, ok := r.Codes[code]
	if !ok {
		return DiscountCode{}, ErrUnknownDiscount
	}
	return dc, nil
}

type Line struct {
	ProductID uint
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Quote struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountCode    string          `json:"discount_code"`
	DiscountPercent int             `json:"discount_percent"`
	Discount        decimal.Decimal `json:"discount"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	PointsUsed      int64           `json:"points_used"`
	MaxPoints       int64           `json:"max_points"`
	Total           decimal.Decimal `json:"total"`
}

// Price computes a quote for the given lines.
//
// total = subtotal - discount + shipping - points. Redeemed points are worth
// one currency unit each and are capped at floor(subtotal - discount), so the
// total never drops below the shipping fee.
func (r Rules) Price(lines []Line, code string, pointsRequested, pointsAvailable int64) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, ErrEmptyCart
	}
	if pointsRequested < 0 {
		return Quote{}, ErrNegativePoints
	}
	if pointsRequested > pointsAvailable {
		return Quote{}, ErrInsufficientPoints
	}
	dc, err := r.LookupDiscount(code)
	if err != nil {
		return Quote{}, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity < 1 {
			return Quote{}, ErrInvalidQuantity
		}
		subtotal = subtotal.Add(l.Total())
	}

	q := Quote{
		Subtotal:        subtotal,
		DiscountCode:    dc.Code,
		DiscountPercent: dc.Percent,
		Discount:        subtotal.Mul(decimal.NewFromInt(int64(dc.Percent))).Div(hundred).Round(2),
		ShippingFee:     r.ShippingFee,
	}
	if dc.FreeShipping || subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		q.ShippingFee = decimal.Zero
	}

	q.MaxPoints = subtotal.Sub(q.Discount).Floor().IntPart()
	if q.MaxPoints < 0 {
		q.MaxPoints = 0
	}
	q.PointsUsed = min(pointsRequested, q.MaxPoints)

	q.Total = subtotal.Sub(q.Discount).Add(q.ShippingFee).Sub(decimal.NewFromInt(q.PointsUsed))
	return q, nil
}

// Cashback is the number of points earned for a paid order total.
func (r Rules) Cashback(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Mul(r.CashbackRate).Round(0).IntPart()
}
