package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// Money columns serialize as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Slug        string                      `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description string                      `gorm:"type:text" json:"description"`
	Price       decimal.Decimal             `gorm:"type:decimal(15,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal         `gorm:"type:decimal(15,2)" json:"sale_price"`
	Stock       int                         `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	Brand       string                      `gorm:"size:100;index" json:"brand"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	IsActive    bool                        `gorm:"index" json:"is_active"`
	IsFeatured  bool                        `gorm:"index" json:"is_featured"`
	CategoryID  *uint                       `gorm:"index" json:"category_id"`
	Category    *Category                   `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// UnitPrice is the price a customer pays for one unit: the sale price when
// one is set and positive, the list price otherwise.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// PrimaryImage returns the first image URL or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
