package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStockCannotGoNegative(t *testing.T) {
	db, err := OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	p := models.Product{Name: "Grip", Slug: "grip", Price: decimal.NewFromInt(20000), Stock: 1, IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&p).Update("stock", -1).Error; err == nil {
		t.Fatal("expected check constraint violation")
	}
}

func TestOneCartPerUser(t *testing.T) {
	db, err := OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	u := models.User{ExternalID: "ext-1", Email: "a@example.com", Role: models.RoleCustomer, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Create(&models.Cart{UserID: u.ID}).Error; err != nil {
		t.Fatalf("first cart: %v", err)
	}
	if err := db.Create(&models.Cart{UserID: u.ID}).Error; err == nil {
		t.Fatal("expected unique violation for second cart")
	}
}
