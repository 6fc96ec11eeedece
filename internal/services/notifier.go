package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

type OrderEventType string

const (
	EventOrderCreated     OrderEventType = "created"
	EventPaymentSubmitted OrderEventType = "payment_submitted"
	EventPaymentVerified  OrderEventType = "payment_verified"
	EventStatusChanged    OrderEventType = "status_changed"
	EventOrderDeleted     OrderEventType = "deleted"
)

// OrderEvent describes one change to an order.
type OrderEvent struct {
	Type          OrderEventType       `json:"type"`
	OrderID       string               `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	OrderStatus   models.OrderStatus   `json:"order_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	OccurredAt    time.Time            `json:"occurred_at"`

	Order *models.Order `json:"-"`
}

func newOrderEvent(t OrderEventType, order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:          t,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    at,
		Order:         order,
	}
}

// Notifier receives order events.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// MultiNotifier fans an event out to every configured notifier.
type MultiNotifier []Notifier

func NewMultiNotifier(notifiers ...Notifier) MultiNotifier {
	var m MultiNotifier
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m MultiNotifier) Notify(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
