package models

import (
	"strings"
	"time"
)

type Address struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	Phone         string    `gorm:"size:30;not null" json:"phone"`
	Province      string    `gorm:"size:100;not null" json:"province"`
	District      string    `gorm:"size:100;not null" json:"district"`
	Ward          string    `gorm:"size:100;not null" json:"ward"`
	AddressDetail string    `gorm:"size:500;not null" json:"address_detail"`
	IsDefault     bool      `gorm:"not null" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Line formats the address the way it is printed on an order.
func (a Address) Line() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.AddressDetail, a.Ward, a.District, a.Province} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
