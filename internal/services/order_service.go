package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/pricing"
	"github.com/kvishal2109/magicofresinn/internal/storage"
	"github.com/kvishal2109/magicofresinn/internal/utils"
)

const notifyTimeout = 15 * time.Second

var ErrPaymentAlreadySubmitted = fmt.Errorf("%w: payment already submitted for this order", apperr.ErrConflict)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	Update(ctx context.Context, id string, mutate func(*models.Order) error) (*models.Order, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// ProductLookup resolves the catalog product behind a cart line.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

// OrderLineInput is one cart line as sent at checkout. Name, price and image
// are taken from the catalog, never from the client.
type OrderLineInput struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Size      *SizeSelection `json:"size,omitempty"`
}

// SizeSelection names the chosen variant of the product's size chart.
type SizeSelection struct {
	ID string `json:"id"`
}

type CreateOrderInput struct {
	Customer   models.Customer  `json:"customer"`
	Items      []OrderLineInput `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Discount   decimal.Decimal  `json:"discount"`
	CouponCode string           `json:"coupon_code"`
}

// Upload is an optional file attached to a request.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

type VerifyInput struct {
	Amount     decimal.Decimal      `json:"verified_amount"`
	Status     models.PaymentStatus `json:"payment_status"`
	VerifiedBy string               `json:"verified_by"`
	Force      bool                 `json:"force"`
}

// orderTransitions lists the legal next states of the order lifecycle.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:   {models.OrderDelivered, models.OrderCancelled},
}

// CanTransition reports whether an order may move from one status to another
// without force.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService drives order creation and the payment and fulfilment state
// machines.
type OrderService struct {
	repo     OrderRepository
	products ProductLookup
	sizes    SizeChartSource
	uploader storage.Uploader
	notifier Notifier
	now      func() time.Time
}

func NewOrderService(repo OrderRepository, products ProductLookup, sizes SizeChartSource, uploader storage.Uploader, notifier Notifier) *OrderService {
	return &OrderService{
		repo:     repo,
		products: products,
		sizes:    sizes,
		uploader: uploader,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateOrder prices every line from the catalog and the size chart, then
// stores the frozen snapshot. A client subtotal that disagrees with the
// catalog is rejected.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateCart(in.Items); err != nil {
		return nil, err
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}

	lines, err := s.snapshotLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = subtotal.Round(2)
	if err := validateTotals(in, subtotal); err != nil {
		return nil, err
	}

	now := s.now()
	order := models.Order{
		Customer:      normalizeCustomer(in.Customer),
		Items:         lines,
		Subtotal:      subtotal,
		Discount:      in.Discount.Round(2),
		CouponCode:    strings.TrimSpace(in.CouponCode),
		TotalAmount:   subtotal.Sub(in.Discount).Round(2),
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderPending,
	}

	for attempt := 1; attempt <= createAttempts; attempt++ {
		order.ID = utils.NewID("order", now)
		order.OrderNumber = utils.NewOrderNumber(now)
		err = s.repo.Create(ctx, &order)
		if !errors.Is(err, apperr.ErrConflict) {
			break
		}
		log.Warn().Str("order_id", order.ID).Int("attempt", attempt).Msg("orders: id collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("orders: create order: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("orders: order created")
	s.notify(EventOrderCreated, &order)
	return &order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("orders: get order %s: %w", id, err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	if filter.PaymentStatus != "" && !validPaymentStatus(filter.PaymentStatus) {
		return nil, 0, apperr.Validation("unknown payment status "+string(filter.PaymentStatus), "payment_status")
	}
	if filter.OrderStatus != "" && !filter.OrderStatus.Valid() {
		return nil, 0, apperr.Validation("unknown order status "+string(filter.OrderStatus), "order_status")
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list orders: %w", err)
	}
	return orders, total, nil
}

// SubmitPayment records the customer's transfer reference and moves the
// order to pending_verification. The proof image is uploaded best-effort.
func (s *OrderService) SubmitPayment(ctx context.Context, orderID, utr string, proof *Upload) (*models.Order, error) {
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return nil, apperr.Validation("UTR number is required", "utrNumber")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation("Order ID is required", "orderId")
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: load order %s: %w", orderID, err)
	}
	if err := checkSubmittable(current.PaymentStatus); err != nil {
		return nil, err
	}

	proofURL := s.uploadProof(ctx, current, proof)

	updated, err := s.repo.Update(ctx, orderID, func(o *models.Order) error {
		if err := checkSubmittable(o.PaymentStatus); err != nil {
			return err
		}
		submitted := s.now()
		o.PaymentStatus = models.PaymentPendingVerification
		o.UTRNumber = utr
		o.PaymentID = utr
		o.PaymentSubmittedAt = &submitted
		if proofURL != "" {
			o.PaymentProofURL = proofURL
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("orders: submit payment for %s: %w", orderID, err)
	}

	log.Info().
		Str("order_id", updated.ID).
		Bool("proof", proofURL != "").
		Msg("orders: payment submitted")
	s.notify(EventPaymentSubmitted, updated)
	return updated, nil
}

func checkSubmittable(status models.PaymentStatus) error {
	if status == models.PaymentPendingVerification || status == models.PaymentPaid {
		return ErrPaymentAlreadySubmitted
	}
	return nil
}

// uploadProof stores the proof image and returns its URL, or "" when the
// proof is missing, not a decodable image, or the upload fails.
func (s *OrderService) uploadProof(ctx context.Context, order *models.Order, proof *Upload) string {
	if proof == nil || len(proof.Data) == 0 || s.uploader == nil {
		return ""
	}

	logger := log.With().Str("order_id", order.ID).Str("filename", proof.Filename).Logger()
	if !storage.IsImage(proof.ContentType) {
		logger.Warn().Str("content_type", proof.ContentType).Msg("orders: payment proof is not an image, ignoring it")
		return ""
	}
	data, err := storage.Optimize(proof.Data, storage.DefaultMaxDimension)
	if err != nil {
		logger.Warn().Err(err).Msg("orders: payment proof cannot be decoded, ignoring it")
		return ""
	}

	base := strings.TrimSuffix(proof.Filename, filepath.Ext(proof.Filename))
	name := "payment-" + order.OrderNumber + "-" + base + ".jpg"
	url, err := s.uploader.Upload(ctx, data, name, "image/jpeg", storage.FolderPaymentProofs)
	if err != nil {
		logger.Warn().Err(err).Msg("orders: payment proof upload failed, continuing without it")
		return ""
	}
	return url
}

// VerifyPayment records the admin's verification outcome. Verifying an order
// that is still pending or already paid requires Force.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID string, in VerifyInput) (*models.Order, error) {
	if !in.Status.IsVerificationResult() {
		return nil, apperr.Validation("payment_status must be one of paid, partial, failed", "payment_status")
	}
	if in.Amount.IsNegative() {
		return nil, apperr.Validation("verified_amount must not be negative", "verified_amount")
	}
	verifiedBy := strings.TrimSpace(in.VerifiedBy)
	if verifiedBy == "" {
		verifiedBy = "admin"
	}

	updated, err := s.repo.Update(ctx, orderID, func(o *models.Order) error {
		if !in.Force && (o.PaymentStatus == models.PaymentPending || o.PaymentStatus == models.PaymentPaid) {
			return apperr.Conflict(fmt.Sprintf("cannot verify payment in status %s without force", o.PaymentStatus))
		}
		amount := in.Amount.Round(2)
		at := s.now()
		o.PaymentStatus = in.Status
		o.VerifiedAmount = &amount
		o.VerifiedAt = &at
		o.VerifiedBy = verifiedBy
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("orders: verify payment for %s: %w", orderID, err)
	}

	log.Info().
		Str("order_id", updated.ID).
		Str("payment_status", string(updated.PaymentStatus)).
		Str("verified_amount", updated.VerifiedAmount.StringFixed(2)).
		Bool("force", in.Force).
		Msg("orders: payment verified")
	s.notify(EventPaymentVerified, updated)
	return updated, nil
}

// UpdateOrderStatus moves the order along its lifecycle. Setting the current
// status again is a no-op.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, force bool) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown order status "+string(status), "order_status")
	}

	changed := false
	updated, err := s.repo.Update(ctx, orderID, func(o *models.Order) error {
		if o.OrderStatus == status {
			return nil
		}
		if !force && !CanTransition(o.OrderStatus, status) {
			return apperr.Conflict(fmt.Sprintf("illegal order status transition %s -> %s", o.OrderStatus, status))
		}
		o.OrderStatus = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("orders: update status of %s: %w", orderID, err)
	}

	if changed {
		log.Info().Str("order_id", updated.ID).Str("order_status", string(status)).Bool("force", force).Msg("orders: status changed")
		s.notify(EventStatusChanged, updated)
	}
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("orders: load order %s: %w", orderID, err)
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("orders: delete order %s: %w", orderID, err)
	}

	log.Warn().Str("order_id", orderID).Msg("orders: order deleted")
	s.notify(EventOrderDeleted, order)
	return nil
}

func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders: stats: %w", err)
	}
	return stats, nil
}

// notify delivers the event in the background so a slow notifier never
// delays the request.
func (s *OrderService) notify(t OrderEventType, order *models.Order) {
	if s.notifier == nil {
		return
	}

	snapshot := *order
	event := newOrderEvent(t, &snapshot, s.now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, event); err != nil {
			log.Warn().Err(err).Str("order_id", event.OrderID).Str("event", string(t)).Msg("orders: notification failed")
		}
	}()
}

// validateCart checks the shape of the cart before any catalog lookup.
func validateCart(items []OrderLineInput) error {
	if len(items) == 0 {
		return apperr.Validation("Order must contain at least one item", "items")
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			return apperr.Validation(prefix+": product_id is required", prefix+".product_id")
		}
		if item.Quantity <= 0 {
			return apperr.Validation(prefix+": quantity must be greater than zero", prefix+".quantity")
		}
		if item.Size != nil && strings.TrimSpace(item.Size.ID) == "" {
			return apperr.Validation(prefix+": size id is required", prefix+".size.id")
		}
	}
	return nil
}

// snapshotLines freezes each cart line from the catalog product and its
// size variant as they are at this instant.
func (s *OrderService) snapshotLines(ctx context.Context, items []OrderLineInput) ([]models.OrderLine, error) {
	var chart models.SizeChart
	if s.sizes != nil {
		chart = s.sizes.Get(ctx)
	}

	lines := make([]models.OrderLine, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)

		product, err := s.products.GetProductByID(ctx, strings.TrimSpace(item.ProductID))
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation(prefix+": unknown product "+item.ProductID, prefix+".product_id")
		}
		if err != nil {
			return nil, fmt.Errorf("orders: load product %s: %w", item.ProductID, err)
		}

		unit := product.Price
		var size *models.SizeVariant
		if item.Size != nil {
			v, ok := pricing.FindVariant(*product, chart, strings.TrimSpace(item.Size.ID))
			if !ok {
				return nil, apperr.Validation(
					fmt.Sprintf("%s: product %s has no size %q", prefix, product.ID, item.Size.ID),
					prefix+".size.id",
				)
			}
			unit = pricing.Resolve(product.Price, v)
			if unit.IsNegative() {
				return nil, apperr.Validation(prefix+": size resolves to a negative price", prefix+".size.id")
			}
			size = &v
		}

		lines = append(lines, models.OrderLine{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.Image,
			Price:        product.Price,
			Quantity:     item.Quantity,
			Size:         size,
			UnitPrice:    unit,
			LineTotal:    unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return lines, nil
}

func validateCustomer(c models.Customer) error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "customer.name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "customer.phone")
	}
	return apperr.MissingFields(missing)
}

// validateTotals checks the client's figures against the catalog subtotal.
// A zero subtotal means the client left it to the server.
func validateTotals(in CreateOrderInput, subtotal decimal.Decimal) error {
	if !in.Subtotal.IsZero() && !in.Subtotal.Round(2).Equal(subtotal) {
		return apperr.Validation(
			fmt.Sprintf("subtotal %s does not match the cart total %s", in.Subtotal.StringFixed(2), subtotal.StringFixed(2)),
			"subtotal",
		)
	}
	if in.Discount.IsNegative() {
		return apperr.Validation("discount must not be negative", "discount")
	}
	if in.Discount.GreaterThan(subtotal) {
		return apperr.Validation("discount must not exceed subtotal", "discount")
	}
	return nil
}

func normalizeCustomer(c models.Customer) models.Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	return c
}

func validPaymentStatus(s models.PaymentStatus) bool {
	return s == models.PaymentPending || s == models.PaymentPendingVerification || s.IsVerificationResult()
}
