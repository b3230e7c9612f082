package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:191;uniqueIndex;not null" json:"external_id"` // identity provider subject
	FirstName  string    `gorm:"size:100" json:"first_name"`
	LastName   string    `gorm:"size:100" json:"last_name"`
	Email      string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Phone      string    `gorm:"size:30" json:"phone"`
	Avatar     string    `json:"avatar"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	IsActive   bool      `json:"is_active"`
	Points     int64     `gorm:"not null;default:0;check:chk_users_points,points >= 0" json:"points"`
	Addresses  []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	Cart       *Cart     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
