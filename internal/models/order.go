package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentPartial             PaymentStatus = "partial"
	PaymentFailed              PaymentStatus = "failed"
)

// IsVerificationResult reports whether s is an outcome an admin may record.
func (s PaymentStatus) IsVerificationResult() bool {
	switch s {
	case PaymentPaid, PaymentPartial, PaymentFailed:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type Customer struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email,omitempty"`
	Address Address `json:"address"`
}

// OrderLine is the frozen copy of a cart line taken at checkout.
type OrderLine struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Size         *SizeVariant    `json:"size,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type Order struct {
	BaseModel
	OrderNumber        string           `gorm:"uniqueIndex;not null" json:"order_number"`
	Customer           Customer         `gorm:"serializer:json;type:jsonb" json:"customer"`
	Items              []OrderLine      `gorm:"serializer:json;type:jsonb" json:"items"`
	Subtotal           decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Discount           decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"discount"`
	CouponCode         string           `json:"coupon_code,omitempty"`
	TotalAmount        decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentStatus      PaymentStatus    `gorm:"index;not null" json:"payment_status"`
	OrderStatus        OrderStatus      `gorm:"index;not null" json:"order_status"`
	PaymentID          string           `json:"payment_id,omitempty"`
	UTRNumber          string           `gorm:"column:utr_number" json:"utr_number,omitempty"`
	PaymentProofURL    string           `json:"payment_proof_url,omitempty"`
	PaymentSubmittedAt *time.Time       `json:"payment_submitted_at,omitempty"`
	VerifiedAmount     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"verified_amount,omitempty"`
	VerifiedAt         *time.Time       `json:"verified_at,omitempty"`
	VerifiedBy         string           `json:"verified_by,omitempty"`
}

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus
	Search        string
	Limit         int
	Offset        int
}

// OrderStats feeds the admin dashboard.
type OrderStats struct {
	TotalOrders     int64            `json:"total_orders"`
	ByPaymentStatus map[string]int64 `json:"orders_by_payment_status"`
	ByOrderStatus   map[string]int64 `json:"orders_by_order_status"`
	VerifiedRevenue decimal.Decimal  `json:"verified_revenue"`
	AwaitingReview  int64            `json:"awaiting_verification"`
}
