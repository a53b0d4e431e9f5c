package repository

import (
	"context"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.Product, int64, error)
	FindAllByVendor(ctx context.Context, vendorID uuid.UUID) ([]model.Product, error)
	CountCreatedInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (int64, error)
	CountUpdatedInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Product{}).Where("vendor_id = ?", vendorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Category").
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) FindAllByVendor(ctx context.Context, vendorID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Preload("Category").
		Where("vendor_id = ?", vendorID).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CountCreatedInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("vendor_id = ? AND created_at >= ? AND created_at < ?", vendorID, start, end).
		Count(&count).Error
	return count, err
}

// CountUpdatedInWindow counts products touched during the window that were
// created before it, so a same-day create does not double count as an update.
func (r *productRepository) CountUpdatedInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("vendor_id = ? AND updated_at >= ? AND updated_at < ? AND created_at < ?", vendorID, start, end, start).
		Count(&count).Error
	return count, err
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ?", id).
		Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error
}
