package repository

import (
	"context"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	Upsert(ctx context.Context, report *model.DailyVendorReport) error
	FindByVendorAndDate(ctx context.Context, vendorID uuid.UUID, date string) (*model.DailyVendorReport, error)
	FindRange(ctx context.Context, vendorID uuid.UUID, start, end string) ([]model.DailyVendorReport, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Upsert writes the report row atomically on the (vendor_id, report_date)
// unique key. Concurrent regenerations resolve to last-write-wins; no row is
// ever duplicated and no application-level lock is needed.
func (r *reportRepository) Upsert(ctx context.Context, report *model.DailyVendorReport) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vendor_id"}, {Name: "report_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_products_created", "total_products_updated",
			"total_orders", "total_revenue", "total_items_sold",
			"total_cart_additions", "total_cart_removals",
			"total_product_views", "total_product_wishlists",
			"best_selling_product_id", "best_selling_product_quantity",
			"most_viewed_product_id", "most_viewed_product_count",
			"most_added_to_cart_product_id", "most_added_to_cart_count",
			"total_unique_buyers", "new_customers", "returning_customers",
			"average_order_value", "average_rating", "total_reviews_received",
			"product_breakdown", "category_breakdown", "hourly_sales",
			"updated_at",
		}),
	}).Create(report).Error
}

func (r *reportRepository) FindByVendorAndDate(ctx context.Context, vendorID uuid.UUID, date string) (*model.DailyVendorReport, error) {
	var report model.DailyVendorReport
	if err := GetDB(ctx, r.db).
		First(&report, "vendor_id = ? AND report_date = ?", vendorID, date).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindRange(ctx context.Context, vendorID uuid.UUID, start, end string) ([]model.DailyVendorReport, error) {
	var reports []model.DailyVendorReport
	if err := GetDB(ctx, r.db).
		Where("vendor_id = ? AND report_date >= ? AND report_date <= ?", vendorID, start, end).
		Order("report_date ASC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
