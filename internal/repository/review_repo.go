package repository

import (
	"context"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RatingSummary aggregates reviews inside a window
type RatingSummary struct {
	Count   int64   `gorm:"column:cnt"`
	Average float64 `gorm:"column:avg_rating"`
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Review, int64, error)
	SummaryInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (RatingSummary, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return GetDB(ctx, r.db).Create(review).Error
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("product_id = ?", productID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) SummaryInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (RatingSummary, error) {
	var summary RatingSummary
	err := GetDB(ctx, r.db).Model(&model.Review{}).
		Select("COUNT(*) as cnt, COALESCE(AVG(rating), 0) as avg_rating").
		Where("vendor_id = ? AND created_at >= ? AND created_at < ?", vendorID, start, end).
		Scan(&summary).Error
	return summary, err
}
