package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, OrderEvent) error { return f.err }

func TestMultiNotifierFansOutAndJoinsErrors(t *testing.T) {
	events := make(chanNotifier, 2)
	boom := errors.New("boom")
	m := NewMultiNotifier(nil, events, failingNotifier{err: boom})

	require.Len(t, m, 2)
	err := m.Notify(context.Background(), OrderEvent{Type: EventOrderCreated, OrderID: "o1"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "o1", (<-events).OrderID)
}

func TestFormatINR(t *testing.T) {
	tests := map[string]string{
		"0":         "₹0.00",
		"999":       "₹999.00",
		"1299":      "₹1,299.00",
		"123456.5":  "₹1,23,456.50",
		"12345678":  "₹1,23,45,678.00",
		"-2500.25":  "-₹2,500.25",
		"100000.01": "₹1,00,000.01",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatINR(decimal.RequireFromString(in)), in)
	}
}

func TestOrderEventJSON(t *testing.T) {
	order := &models.Order{
		BaseModel:     models.BaseModel{ID: "order-1"},
		OrderNumber:   "ORD-1",
		PaymentStatus: models.PaymentPaid,
		OrderStatus:   models.OrderConfirmed,
		TotalAmount:   decimal.RequireFromString("1299.00"),
	}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	body, err := json.Marshal(newOrderEvent(EventPaymentVerified, order, at))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "payment_verified",
		"order_id": "order-1",
		"order_number": "ORD-1",
		"payment_status": "paid",
		"order_status": "confirmed",
		"total_amount": 1299,
		"occurred_at": "2025-03-01T10:00:00Z"
	}`, string(body))
	assert.Equal(t, "order.payment_verified", RoutingKey(EventPaymentVerified))
}

func TestTelegramNotifySendsAdminMessage(t *testing.T) {
	var got telegramMessage
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewTelegramService("token", "42")
	svc.baseURL = server.URL

	order := &models.Order{
		BaseModel:   models.BaseModel{ID: "o1"},
		OrderNumber: "ORD-7",
		Customer:    models.Customer{Name: "Asha <VIP>", Phone: "98765"},
		Items: []models.OrderLine{{
			ProductName: "Ocean Wall Clock",
			Quantity:    2,
			Size:        &models.SizeVariant{ID: "m", Label: "M"},
			UnitPrice:   decimal.NewFromInt(1299),
			LineTotal:   decimal.NewFromInt(2598),
		}},
		TotalAmount: decimal.NewFromInt(2598),
	}

	err := svc.Notify(context.Background(), newOrderEvent(EventOrderCreated, order, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "ORD-7")
	assert.Contains(t, got.Text, "Asha &lt;VIP&gt;")
	assert.Contains(t, got.Text, "Ocean Wall Clock (M)")
	assert.Contains(t, got.Text, "₹2,598.00")
}

func TestTelegramSkipsWhenUnconfigured(t *testing.T) {
	svc := NewTelegramService("", "")

	assert.NoError(t, svc.Notify(context.Background(), OrderEvent{Type: EventOrderCreated}))
	assert.False(t, svc.Configured())
}

func TestTelegramReportsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewTelegramService("token", "42")
	svc.baseURL = server.URL

	err := svc.Notify(context.Background(), OrderEvent{Type: EventStatusChanged, OrderNumber: "ORD-1", OrderStatus: models.OrderShipped})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "400"))
}
