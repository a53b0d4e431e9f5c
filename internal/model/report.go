package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportDateLayout is the wire and storage format for report dates.
// Dates cross every boundary as plain YYYY-MM-DD strings so the unique
// key on (vendor_id, report_date) is immune to timezone drift.
const ReportDateLayout = "2006-01-02"

// Breakdown is an open-ended mapping of label to numeric value, stored as a
// JSON column. encoding/json emits map keys in sorted order, which keeps the
// serialized form deterministic and comparable across regenerations.
type Breakdown map[string]float64

// Value implements driver.Valuer
func (b Breakdown) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner
func (b *Breakdown) Scan(value interface{}) error {
	if value == nil {
		*b = Breakdown{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported breakdown column type %T", value)
	}
	if len(raw) == 0 {
		*b = Breakdown{}
		return nil
	}
	return json.Unmarshal(raw, b)
}

// DailyVendorReport is one immutable snapshot of a vendor's day.
// Rows are only ever written whole by an explicit generate action; the
// composite unique index makes regeneration an atomic insert-or-replace.
type DailyVendorReport struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vendor_report_date" json:"vendor_id"`
	ReportDate string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_vendor_report_date" json:"report_date"`

	TotalProductsCreated int `gorm:"not null;default:0" json:"total_products_created"`
	TotalProductsUpdated int `gorm:"not null;default:0" json:"total_products_updated"`

	TotalOrders    int             `gorm:"not null;default:0" json:"total_orders"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_revenue"`
	TotalItemsSold int             `gorm:"not null;default:0" json:"total_items_sold"`

	TotalCartAdditions    int `gorm:"not null;default:0" json:"total_cart_additions"`
	TotalCartRemovals     int `gorm:"not null;default:0" json:"total_cart_removals"`
	TotalProductViews     int `gorm:"not null;default:0" json:"total_product_views"`
	TotalProductWishlists int `gorm:"not null;default:0" json:"total_product_wishlists"`

	BestSellingProductID       *uuid.UUID `gorm:"type:uuid" json:"best_selling_product_id"`
	BestSellingProductQuantity int        `gorm:"not null;default:0" json:"best_selling_product_quantity"`
	MostViewedProductID        *uuid.UUID `gorm:"type:uuid" json:"most_viewed_product_id"`
	MostViewedProductCount     int        `gorm:"not null;default:0" json:"most_viewed_product_count"`
	MostAddedToCartProductID   *uuid.UUID `gorm:"type:uuid" json:"most_added_to_cart_product_id"`
	MostAddedToCartCount       int        `gorm:"not null;default:0" json:"most_added_to_cart_count"`

	TotalUniqueBuyers  int `gorm:"not null;default:0" json:"total_unique_buyers"`
	NewCustomers       int `gorm:"not null;default:0" json:"new_customers"`
	ReturningCustomers int `gorm:"not null;default:0" json:"returning_customers"`

	AverageOrderValue decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"average_order_value"`

	AverageRating        float64 `gorm:"not null;default:0" json:"average_rating"`
	TotalReviewsReceived int     `gorm:"not null;default:0" json:"total_reviews_received"`

	ProductBreakdown  Breakdown `gorm:"type:jsonb" json:"product_breakdown"`
	CategoryBreakdown Breakdown `gorm:"type:jsonb" json:"category_breakdown"`
	HourlySales       Breakdown `gorm:"type:jsonb" json:"hourly_sales"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *DailyVendorReport) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CartConversionRate returns orders per cart addition, 0 when no additions
func (r *DailyVendorReport) CartConversionRate() float64 {
	return safeRatio(r.TotalOrders, r.TotalCartAdditions)
}

// ViewConversionRate returns orders per product view, 0 when no views
func (r *DailyVendorReport) ViewConversionRate() float64 {
	return safeRatio(r.TotalOrders, r.TotalProductViews)
}

// WishlistConversionRate returns orders per wishlist add, 0 when no adds
func (r *DailyVendorReport) WishlistConversionRate() float64 {
	return safeRatio(r.TotalOrders, r.TotalProductWishlists)
}

func safeRatio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
