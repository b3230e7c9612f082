// Package events fans order lifecycle events out to live admin clients and
// the message broker.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/models"
)

type Type string

const (
	OrderCreated        Type = "order.created"
	OrderPaid           Type = "order.paid"
	OrderCancelled      Type = "order.cancelled"
	OrderStatusChanged  Type = "order.status_changed"
	OrderRefundRequired Type = "order.refund_required" // paid after cancellation, could not be reopened
)

type Event struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        *uint           `json:"user_id,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	PointsEarned  int64           `json:"points_earned,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewOrderEvent(t Type, o models.Order) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total,
		PointsEarned:  o.PointsEarned,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Types() []Type {
	out := make([]Type, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
