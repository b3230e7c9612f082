// Package payment talks to the card processor and builds bank-transfer QR
// codes.
package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	ErrDisabled         = errors.New("card payments are not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Webhook event types the shop reacts to.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type CheckoutRequest struct {
	OrderID       uint
	OrderNumber   string
	UserID        uint
	CustomerEmail string
	Amount        decimal.Decimal
	PointsUsed    int64
	Description   string
}

type Session struct {
	ID              string
	URL             string
	PaymentStatus   string // "paid", "unpaid" or "no_payment_required"
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
}

func (s *Session) Paid() bool { return s.PaymentStatus == "paid" }

// OrderID reads the order id stored in the metadata at creation.
func (s *Session) OrderID() uint { return metadataUint(s.Metadata, "orderId") }

func (s *Session) UserID() uint { return metadataUint(s.Metadata, "userId") }

type WebhookEvent struct {
	ID   string
	Type string
	// Session is set for checkout.session.* events.
	Session *Session
	// Metadata carries the payment intent metadata for payment_intent.* events.
	Metadata        map[string]string
	PaymentIntentID string
}

// OrderID resolves the order an event refers to, 0 when unknown.
func (e *WebhookEvent) OrderID() uint {
	if e.Session != nil {
		return e.Session.OrderID()
	}
	return metadataUint(e.Metadata, "orderId")
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Disabled is used when no processor key is configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, CheckoutRequest) (*Session, error) {
	return nil, ErrDisabled
}

func (Disabled) RetrieveSession(context.Context, string) (*Session, error) {
	return nil, ErrDisabled
}

func (Disabled) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return nil, ErrDisabled
}

func metadataUint(md map[string]string, key string) uint {
	v, err := strconv.ParseUint(md[key], 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
