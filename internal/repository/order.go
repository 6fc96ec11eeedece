package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
)

// OrderRepository persists orders.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate("insert order", "order", r.db.WithContext(ctx).Create(order).Error)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate("select order", "order", err)
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderStatus != "" {
		query = query.Where("order_status = ?", filter.OrderStatus)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q := "%" + s + "%"
		query = query.Where(
			"order_number ILIKE ? OR customer->>'name' ILIKE ? OR customer->>'phone' ILIKE ? OR utr_number ILIKE ?",
			q, q, q, q,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count orders", "order", err)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, translate("select orders", "order", err)
	}

	return orders, total, nil
}

// Update loads the order under a row lock, lets mutate change it and saves
// the result in the same transaction. An error from mutate rolls back and is
// returned unchanged.
func (r *OrderRepository) Update(ctx context.Context, id string, mutate func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	var mutateErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if mutateErr = mutate(&order); mutateErr != nil {
			return mutateErr
		}
		return tx.Save(&order).Error
	})
	if mutateErr != nil {
		return nil, mutateErr
	}
	if err != nil {
		return nil, translate("update order", "order", err)
	}
	return &order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete order", "order", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order")
	}
	return nil
}

func (r *OrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.OrderStats{
		ByPaymentStatus: map[string]int64{},
		ByOrderStatus:   map[string]int64{},
	}

	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, translate("count orders", "order", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}

	var byPayment []statusCount
	if err := db.Model(&models.Order{}).
		Select("payment_status as status, count(*) as count").
		Group("payment_status").
		Scan(&byPayment).Error; err != nil {
		return nil, translate("group orders by payment status", "order", err)
	}
	for _, sc := range byPayment {
		stats.ByPaymentStatus[sc.Status] = sc.Count
	}
	stats.AwaitingReview = stats.ByPaymentStatus[string(models.PaymentPendingVerification)]

	var byOrder []statusCount
	if err := db.Model(&models.Order{}).
		Select("order_status as status, count(*) as count").
		Group("order_status").
		Scan(&byOrder).Error; err != nil {
		return nil, translate("group orders by order status", "order", err)
	}
	for _, sc := range byOrder {
		stats.ByOrderStatus[sc.Status] = sc.Count
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Order{}).
		Where("payment_status IN ?", []models.PaymentStatus{models.PaymentPaid, models.PaymentPartial}).
		Where("order_status <> ?", models.OrderCancelled).
		Select("SUM(verified_amount)").
		Scan(&revenue).Error; err != nil {
		return nil, translate("sum verified revenue", "order", err)
	}
	stats.VerifiedRevenue = decimal.Zero
	if revenue.Valid {
		stats.VerifiedRevenue = revenue.Decimal
	}

	return stats, nil
}
