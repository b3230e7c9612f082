package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, awaiting payment or confirmation
	OrderStatusProcessing OrderStatus = "processing" // paid or confirmed, being prepared
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"

	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodVietQR PaymentMethod = "vietqr"
)

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (m PaymentMethod) Online() bool {
	return m == PaymentMethodStripe || m == PaymentMethodVietQR
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	UserID          *uint           `gorm:"index" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	CustomerName    string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"size:191;not null" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:30;not null" json:"customer_phone"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"shipping_fee"`
	Discount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"discount"`
	DiscountCode    string          `gorm:"size:50" json:"discount_code"`
	PointsUsed      int64           `gorm:"not null;default:0" json:"points_used"`
	PointsEarned    int64           `gorm:"not null;default:0" json:"points_earned"`
	Total           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null;default:'cod'" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	StripeSessionID string          `gorm:"size:255;index" json:"stripe_session_id,omitempty"`
	PaymentRef      string          `gorm:"size:255" json:"payment_ref,omitempty"`
	PaidAt          *time.Time      `json:"paid_at"`
	Note            string          `gorm:"type:text" json:"note"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductSnapshot freezes what the customer saw when ordering.
type ProductSnapshot struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	Brand     string              `json:"brand"`
	Price     decimal.Decimal     `json:"price"`
	SalePrice decimal.NullDecimal `json:"sale_price"`
	Image     string              `json:"image"`
}

type OrderItem struct {
	ID              uint                                `gorm:"primaryKey" json:"id"`
	OrderID         uint                                `gorm:"index;not null" json:"order_id"`
	ProductID       *uint                               `gorm:"index" json:"product_id"` // nulled when the product is deleted
	ProductName     string                              `gorm:"size:255;not null" json:"product_name"`
	Price           decimal.Decimal                     `gorm:"type:decimal(15,2);not null" json:"price"`
	Quantity        int                                 `gorm:"not null" json:"quantity"`
	Total           decimal.Decimal                     `gorm:"type:decimal(15,2);not null" json:"total"`
	ProductSnapshot datatypes.JSONType[ProductSnapshot] `json:"product_snapshot"`
}

func SnapshotOf(p Product) ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Brand:     p.Brand,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Image:     p.PrimaryImage(),
	}
}
