// Package assistant answers storefront chat questions with a hosted LLM,
// grounded on the shop profile and featured products.
package assistant

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"text/template"

	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/models"
)

var ErrDisabled = errors.New("chat assistant is not configured")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxHistory bounds how many prior turns are sent to the model.
const maxHistory = 20

type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type Assistant interface {
	Reply(ctx context.Context, system string, history []Message) (string, error)
}

type Disabled struct{}

func (Disabled) Reply(context.Context, string, []Message) (string, error) {
	return "", ErrDisabled
}

//go:embed template/system_prompt.txt
var systemPrompt string

var promptTmpl = template.Must(template.New("system").Parse(systemPrompt))

type promptProduct struct {
	Name    string
	Brand   string
	Price   string
	Sale    string
	InStock bool
}

// SystemPrompt renders the instructions sent with every conversation.
func SystemPrompt(shop *config.ShopSettings, featured []models.Product) (string, error) {
	vars := struct {
		Shop     *config.ShopSettings
		Codes    []string
		Products []promptProduct
	}{Shop: shop}

	for _, dc := range shop.DiscountCodes {
		switch {
		case dc.FreeShipping:
			vars.Codes = append(vars.Codes, dc.Code+": free shipping")
		case dc.Percent > 0:
			vars.Codes = append(vars.Codes, fmt.Sprintf("%s: %d%% off", dc.Code, dc.Percent))
		}
	}
	for _, p := range featured {
		pp := promptProduct{Name: p.Name, Brand: p.Brand, Price: p.Price.StringFixed(0), InStock: p.Stock > 0}
		if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
			pp.Sale = p.SalePrice.Decimal.StringFixed(0)
		}
		vars.Products = append(vars.Products, pp)
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

// Trim keeps the most recent turns.
func Trim(history []Message) []Message {
	if len(history) <= maxHistory {
		return history
	}
	return history[len(history)-maxHistory:]
}
