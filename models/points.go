package models

import "time"

type PointKind string

const (
	PointKindRedeem PointKind = "redeem" // spent at checkout
	PointKindEarn   PointKind = "earn"   // cashback on a paid order
	PointKindRefund PointKind = "refund" // redeemed points returned on cancellation
	PointKindRevoke PointKind = "revoke" // cashback taken back on cancellation
	PointKindAdjust PointKind = "adjust"
)

// PointTransaction is one row of a user's loyalty ledger. Points is signed.
type PointTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	OrderID      *uint     `gorm:"index" json:"order_id"`
	Kind         PointKind `gorm:"type:varchar(20);not null" json:"kind"`
	Points       int64     `gorm:"not null" json:"points"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Note         string    `gorm:"size:255" json:"note"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
