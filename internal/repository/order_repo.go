package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	FindInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]model.Order, error)
	FirstOrderAt(ctx context.Context, customerID uuid.UUID) (time.Time, bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, page, limit)
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, "customer_id = ?", customerID, page, limit)
}

func (r *orderRepository) list(ctx context.Context, cond string, id uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Order{}).Where(cond, id).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").
		Where(cond, id).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindInWindow returns every order the vendor received inside [start, end),
// items preloaded, regardless of status. Status policy lives in the service.
func (r *orderRepository) FindInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("vendor_id = ? AND created_at >= ? AND created_at < ?", vendorID, start, end).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FirstOrderAt returns the creation time of the customer's earliest counted
// order across the whole marketplace. This lookup is deliberately not
// window-restricted: new-vs-returning classification needs full history.
func (r *orderRepository) FirstOrderAt(ctx context.Context, customerID uuid.UUID) (time.Time, bool, error) {
	var order model.Order
	err := GetDB(ctx, r.db).
		Where("customer_id = ? AND status NOT IN ?", customerID, model.ExcludedOrderStatuses).
		Order("created_at ASC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return order.CreatedAt, true, nil
}
