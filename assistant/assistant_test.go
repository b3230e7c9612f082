package assistant

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func TestSystemPrompt(t *testing.T) {
	shop, err := config.LoadShop("")
	if err != nil {
		t.Fatal(err)
	}
	products := []models.Product{
		{Name: "Yonex Astrox 99 Pro", Brand: "Yonex", Price: decimal.NewFromInt(4500000),
			SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(3900000)), Stock: 3},
		{Name: "Victor Jetspeed S12", Brand: "Victor", Price: decimal.NewFromInt(3200000)},
	}

	got, err := SystemPrompt(shop, products)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		shop.Name,
		shop.Hotline,
		"SALE20: 20% off",
		"FREESHIP: free shipping",
		"Yonex Astrox 99 Pro (Yonex): 4500000, on sale 3900000",
		"Victor Jetspeed S12 (Victor): 3200000, out of stock",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTrim(t *testing.T) {
	var h []Message
	for i := 0; i < maxHistory+5; i++ {
		h = append(h, Message{Role: RoleUser, Content: string(rune('a' + i%26))})
	}
	got := Trim(h)
	if len(got) != maxHistory || got[0] != h[5] {
		t.Fatalf("trimmed to %d, first %+v", len(got), got[0])
	}
}
