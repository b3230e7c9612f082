package payment

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/config"
)

const vietQRImageBase = "https://img.vietqr.io/image"

// VietQR builds quick-link images for the shop's bank account that banking
// apps scan to prefill a transfer.
type VietQR struct {
	BankID      string
	AccountNo   string
	AccountName string
	Template    string
}

func NewVietQR(cfg config.VietQRConfig) VietQR {
	return VietQR{BankID: cfg.BankID, AccountNo: cfg.AccountNo, AccountName: cfg.AccountName, Template: cfg.Template}
}

func (q VietQR) Enabled() bool {
	return q.BankID != "" && q.AccountNo != ""
}

// ImageURL returns the QR image URL for a transfer of amount (whole VND) with
// the order number as the transfer note.
func (q VietQR) ImageURL(amount decimal.Decimal, note string) string {
	template := q.Template
	if template == "" {
		template = "compact2"
	}
	v := url.Values{}
	v.Set("amount", amount.Round(0).String())
	v.Set("addInfo", note)
	if q.AccountName != "" {
		v.Set("accountName", q.AccountName)
	}
	return fmt.Sprintf("%s/%s-%s-%s.png?%s", vietQRImageBase,
		url.PathEscape(q.BankID), url.PathEscape(q.AccountNo), url.PathEscape(template), v.Encode())
}
