package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/tienchung1704/real-dinhanstore/pricing"
)

type DiscountCodeSetting struct {
	Code         string `mapstructure:"code"`
	Percent      int    `mapstructure:"percent"`
	FreeShipping bool   `mapstructure:"free_shipping"`
}

// ShopSettings are the business knobs of the store. They change with
// promotions rather than deployments, so they live in a file.
type ShopSettings struct {
	Name                  string                `mapstructure:"name"`
	Hotline               string                `mapstructure:"hotline"`
	Email                 string                `mapstructure:"email"`
	Address               string                `mapstructure:"address"`
	Website               string                `mapstructure:"website"`
	TimezoneOffsetHours   int                   `mapstructure:"timezone_offset_hours"`
	FreeShippingThreshold float64               `mapstructure:"free_shipping_threshold"`
	ShippingFee           float64               `mapstructure:"shipping_fee"`
	CashbackRate          float64               `mapstructure:"cashback_rate"`
	LowStockThreshold     int                   `mapstructure:"low_stock_threshold"`
	DiscountCodes         []DiscountCodeSetting `mapstructure:"discount_codes"`
	Policies              []string              `mapstructure:"policies"`
}

func setShopDefaults(v *viper.Viper) {
	v.SetDefault("name", "Dinh An Store")
	v.SetDefault("hotline", "0987 654 321")
	v.SetDefault("email", "support@dinhanstore.vn")
	v.SetDefault("address", "Ha Noi, Viet Nam")
	v.SetDefault("website", "https://dinhanstore.vn")
	v.SetDefault("timezone_offset_hours", 7)
	v.SetDefault("free_shipping_threshold", 500000)
	v.SetDefault("shipping_fee", 30000)
	v.SetDefault("cashback_rate", 0.15)
	v.SetDefault("low_stock_threshold", 5)
	v.SetDefault("discount_codes", []map[string]any{
		{"code": "SALE10", "percent": 10},
		{"code": "SALE20", "percent": 20},
		{"code": "SALE30", "percent": 30},
		{"code": "FREESHIP", "percent": 0, "free_shipping": true},
	})
	v.SetDefault("policies", []string{
		"Free shipping on orders from 500.000 VND",
		"30-day returns for unused products",
		"Delivery within 24 hours in the city",
		"Genuine products with official warranty",
	})
}

// LoadShop reads shop settings from path (any format viper understands).
// An empty path yields the defaults. SHOP_* environment variables override
// scalar keys, e.g. SHOP_SHIPPING_FEE.
func LoadShop(path string) (*ShopSettings, error) {
	v := viper.New()
	setShopDefaults(v)
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read shop settings %s: %w", path, err)
		}
	}

	var s ShopSettings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode shop settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *ShopSettings) validate() error {
	if s.ShippingFee < 0 || s.FreeShippingThreshold < 0 {
		return fmt.Errorf("shipping settings must not be negative")
	}
	if s.CashbackRate < 0 || s.CashbackRate > 1 {
		return fmt.Errorf("cashback_rate must be within [0, 1], got %v", s.CashbackRate)
	}
	if s.TimezoneOffsetHours < -12 || s.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone_offset_hours out of range: %d", s.TimezoneOffsetHours)
	}
	seen := make(map[string]bool, len(s.DiscountCodes))
	for _, dc := range s.DiscountCodes {
		code := strings.ToUpper(strings.TrimSpace(dc.Code))
		if code == "" {
			return fmt.Errorf("discount code without a name")
		}
		if dc.Percent < 0 || dc.Percent > 100 {
			return fmt.Errorf("discount code %s: percent out of range", code)
		}
		if seen[code] {
			return fmt.Errorf("duplicate discount code %s", code)
		}
		seen[code] = true
	}
	return nil
}

// PricingRules converts the settings into the rules used by checkout.
func (s *ShopSettings) PricingRules() pricing.Rules {
	codes := make(map[string]pricing.DiscountCode, len(s.DiscountCodes))
	for _, dc := range s.DiscountCodes {
		code := strings.ToUpper(strings.TrimSpace(dc.Code))
		codes[code] = pricing.DiscountCode{Code: code, Percent: dc.Percent, FreeShipping: dc.FreeShipping}
	}
	return pricing.Rules{
		FreeShippingThreshold: decimal.NewFromFloat(s.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(s.ShippingFee),
		CashbackRate:          decimal.NewFromFloat(s.CashbackRate),
		Codes:                 codes,
	}
}
