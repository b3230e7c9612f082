package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	ID            uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string                      `gorm:"size:255;not null" json:"name"`
	Slug          string                      `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description   string                      `gorm:"type:text" json:"description"`
	Image         string                      `json:"image"`
	Subcategories datatypes.JSONSlice[string] `json:"subcategories"`
	Products      []Product                   `gorm:"constraint:OnDelete:SET NULL" json:"products,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}
