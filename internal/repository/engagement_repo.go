package repository

import (
	"context"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductCount pairs a product with an event tally
type ProductCount struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Count     int       `gorm:"column:cnt"`
}

type EngagementRepository interface {
	Create(ctx context.Context, event *model.EngagementEvent) error
	CountByTypeInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (map[string]int, error)
	TopProductByTypeInWindow(ctx context.Context, vendorID uuid.UUID, eventType string, start, end time.Time) (*ProductCount, error)
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) Create(ctx context.Context, event *model.EngagementEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *engagementRepository) CountByTypeInWindow(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (map[string]int, error) {
	var rows []struct {
		Type string `gorm:"column:type"`
		Cnt  int    `gorm:"column:cnt"`
	}
	err := GetDB(ctx, r.db).Model(&model.EngagementEvent{}).
		Select("type, COUNT(*) as cnt").
		Where("vendor_id = ? AND occurred_at >= ? AND occurred_at < ?", vendorID, start, end).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Cnt
	}
	return counts, nil
}

// TopProductByTypeInWindow returns the product with the most events of the
// given type, nil when the window has none. Ties resolve to the lowest
// product id so repeated generations stay byte-identical.
func (r *engagementRepository) TopProductByTypeInWindow(ctx context.Context, vendorID uuid.UUID, eventType string, start, end time.Time) (*ProductCount, error) {
	var rows []ProductCount
	err := GetDB(ctx, r.db).Model(&model.EngagementEvent{}).
		Select("product_id, COUNT(*) as cnt").
		Where("vendor_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?", vendorID, eventType, start, end).
		Group("product_id").
		Order("cnt DESC, product_id ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
