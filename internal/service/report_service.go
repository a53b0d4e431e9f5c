package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

// ReportResponse is the wire shape of one daily vendor report. Monetary
// amounts are formatted strings so clients never see float drift; the
// conversion ratios are derived on read and never stored. GeneratedAt is the
// time of the most recent regeneration and is the one field that moves when
// an unchanged day is regenerated; every metric stays identical.
type ReportResponse struct {
	ID         string `json:"id"`
	VendorID   string `json:"vendor_id"`
	ReportDate string `json:"report_date"`

	TotalProductsCreated int `json:"total_products_created"`
	TotalProductsUpdated int `json:"total_products_updated"`

	TotalOrders    int    `json:"total_orders"`
	TotalRevenue   string `json:"total_revenue"`
	TotalItemsSold int    `json:"total_items_sold"`

	TotalCartAdditions    int `json:"total_cart_additions"`
	TotalCartRemovals     int `json:"total_cart_removals"`
	TotalProductViews     int `json:"total_product_views"`
	TotalProductWishlists int `json:"total_product_wishlists"`

	BestSellingProductID       *string `json:"best_selling_product_id"`
	BestSellingProductQuantity int     `json:"best_selling_product_quantity"`
	MostViewedProductID        *string `json:"most_viewed_product_id"`
	MostViewedProductCount     int     `json:"most_viewed_product_count"`
	MostAddedToCartProductID   *string `json:"most_added_to_cart_product_id"`
	MostAddedToCartCount       int     `json:"most_added_to_cart_count"`

	TotalUniqueBuyers  int `json:"total_unique_buyers"`
	NewCustomers       int `json:"new_customers"`
	ReturningCustomers int `json:"returning_customers"`

	AverageOrderValue string `json:"average_order_value"`

	AverageRating        float64 `json:"average_rating"`
	TotalReviewsReceived int     `json:"total_reviews_received"`

	CartConversionRate     float64 `json:"cart_conversion_rate"`
	ViewConversionRate     float64 `json:"view_conversion_rate"`
	WishlistConversionRate float64 `json:"wishlist_conversion_rate"`

	ProductBreakdown  model.Breakdown `json:"product_breakdown"`
	CategoryBreakdown model.Breakdown `json:"category_breakdown"`
	HourlySales       model.Breakdown `json:"hourly_sales"`

	GeneratedAt string `json:"generated_at"`
}

// ReportNotifier pushes a report-ready signal to connected dashboard clients
type ReportNotifier interface {
	ReportGenerated(vendorID, date string)
}

// --- Interface ---

type ReportService interface {
	Generate(ctx context.Context, vendorID uuid.UUID, date string) (*ReportResponse, error)
	GetByDate(ctx context.Context, vendorID uuid.UUID, date string) (*ReportResponse, error)
	GetRange(ctx context.Context, vendorID uuid.UUID, startDate, endDate string) ([]ReportResponse, error)
}

type reportService struct {
	vendorRepo     repository.VendorRepository
	productRepo    repository.ProductRepository
	orderRepo      repository.OrderRepository
	engagementRepo repository.EngagementRepository
	reviewRepo     repository.ReviewRepository
	reportRepo     repository.ReportRepository
	loc            *time.Location
	notifier       ReportNotifier
}

// NewReportService wires the aggregator to its source stores. loc is the
// platform timezone that defines where one calendar day ends and the next
// begins; notifier may be nil.
func NewReportService(
	vendorRepo repository.VendorRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	engagementRepo repository.EngagementRepository,
	reviewRepo repository.ReviewRepository,
	reportRepo repository.ReportRepository,
	loc *time.Location,
	notifier ReportNotifier,
) ReportService {
	return &reportService{
		vendorRepo:     vendorRepo,
		productRepo:    productRepo,
		orderRepo:      orderRepo,
		engagementRepo: engagementRepo,
		reviewRepo:     reviewRepo,
		reportRepo:     reportRepo,
		loc:            loc,
		notifier:       notifier,
	}
}

// --- Implementation ---

// Generate recomputes the vendor's snapshot for one calendar date and
// replaces whatever row existed before. The computation is deterministic
// given the same underlying data, so racing generations are harmless.
func (s *reportService) Generate(ctx context.Context, vendorID uuid.UUID, date string) (*ReportResponse, error) {
	day, err := time.ParseInLocation(model.ReportDateLayout, date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("fetch vendor: %w", err)
	}

	// The day's window is half-open [00:00, next-day 00:00) in the platform
	// timezone. Every "that day" filter below uses these exact bounds.
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	report := &model.DailyVendorReport{
		VendorID:          vendorID,
		ReportDate:        date,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ProductBreakdown:  model.Breakdown{},
		CategoryBreakdown: model.Breakdown{},
		HourlySales:       model.Breakdown{},
	}

	if err := s.aggregateOrders(ctx, report, vendorID, start, end); err != nil {
		return nil, err
	}
	if err := s.aggregateEngagement(ctx, report, vendorID, start, end); err != nil {
		return nil, err
	}
	if err := s.aggregateCatalog(ctx, report, vendorID, start, end); err != nil {
		return nil, err
	}
	if err := s.aggregateReviews(ctx, report, vendorID, start, end); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("upsert report: %w", err)
	}

	// Re-read the stored row so regeneration returns the persisted identity,
	// not the transient one built above.
	stored, err := s.reportRepo.FindByVendorAndDate(ctx, vendorID, date)
	if err != nil {
		return nil, fmt.Errorf("reload report: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"vendor_id":    vendorID.String(),
		"report_date":  date,
		"total_orders": stored.TotalOrders,
		"revenue":      stored.TotalRevenue.String(),
	}).Info("daily vendor report generated")

	if s.notifier != nil {
		s.notifier.ReportGenerated(vendorID.String(), date)
	}

	return mapReportToResponse(stored), nil
}

// aggregateOrders fills order, item, buyer and sales-breakdown metrics.
// Cancelled and refunded orders are excluded from every sales metric;
// counting cancelled money as revenue would be a defect, not a feature.
func (s *reportService) aggregateOrders(ctx context.Context, report *model.DailyVendorReport, vendorID uuid.UUID, start, end time.Time) error {
	orders, err := s.orderRepo.FindInWindow(ctx, vendorID, start, end)
	if err != nil {
		return fmt.Errorf("fetch orders in window: %w", err)
	}

	products, err := s.productRepo.FindAllByVendor(ctx, vendorID)
	if err != nil {
		return fmt.Errorf("fetch vendor products: %w", err)
	}
	productByID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	revenue := decimal.Zero
	quantityByProduct := make(map[uuid.UUID]int)
	buyers := make(map[uuid.UUID]struct{})

	for _, order := range orders {
		if !order.Counted() {
			continue
		}

		report.TotalOrders++
		revenue = revenue.Add(order.Total)
		buyers[order.CustomerID] = struct{}{}

		hour := order.CreatedAt.In(s.loc).Format("15")
		total, _ := order.Total.Float64()
		report.HourlySales[hour] += total

		for _, item := range order.Items {
			report.TotalItemsSold += item.Quantity
			quantityByProduct[item.ProductID] += item.Quantity

			report.ProductBreakdown[item.ProductID.String()] += float64(item.Quantity)

			categoryName := "uncategorized"
			if p, ok := productByID[item.ProductID]; ok && p.Category != nil {
				categoryName = p.Category.Name
			}
			lineTotal, _ := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Float64()
			report.CategoryBreakdown[categoryName] += lineTotal
		}
	}

	report.TotalRevenue = revenue.Round(2)
	if report.TotalOrders > 0 {
		report.AverageOrderValue = revenue.Div(decimal.NewFromInt(int64(report.TotalOrders))).Round(2)
	}

	if bestID, bestQty, ok := maxByQuantity(quantityByProduct); ok {
		id := bestID
		report.BestSellingProductID = &id
		report.BestSellingProductQuantity = bestQty
	}

	report.TotalUniqueBuyers = len(buyers)
	for customerID := range buyers {
		firstAt, found, err := s.orderRepo.FirstOrderAt(ctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch first order date: %w", err)
		}
		if found && firstAt.In(s.loc).Format(model.ReportDateLayout) == report.ReportDate {
			report.NewCustomers++
		} else {
			report.ReturningCustomers++
		}
	}

	return nil
}

func (s *reportService) aggregateEngagement(ctx context.Context, report *model.DailyVendorReport, vendorID uuid.UUID, start, end time.Time) error {
	counts, err := s.engagementRepo.CountByTypeInWindow(ctx, vendorID, start, end)
	if err != nil {
		return fmt.Errorf("count engagement events: %w", err)
	}
	report.TotalCartAdditions = counts[model.EventTypeCartAdd]
	report.TotalCartRemovals = counts[model.EventTypeCartRemove]
	report.TotalProductViews = counts[model.EventTypeView]
	report.TotalProductWishlists = counts[model.EventTypeWishlist]

	topViewed, err := s.engagementRepo.TopProductByTypeInWindow(ctx, vendorID, model.EventTypeView, start, end)
	if err != nil {
		return fmt.Errorf("rank viewed products: %w", err)
	}
	if topViewed != nil {
		id := topViewed.ProductID
		report.MostViewedProductID = &id
		report.MostViewedProductCount = topViewed.Count
	}

	topCarted, err := s.engagementRepo.TopProductByTypeInWindow(ctx, vendorID, model.EventTypeCartAdd, start, end)
	if err != nil {
		return fmt.Errorf("rank carted products: %w", err)
	}
	if topCarted != nil {
		id := topCarted.ProductID
		report.MostAddedToCartProductID = &id
		report.MostAddedToCartCount = topCarted.Count
	}

	return nil
}

func (s *reportService) aggregateCatalog(ctx context.Context, report *model.DailyVendorReport, vendorID uuid.UUID, start, end time.Time) error {
	created, err := s.productRepo.CountCreatedInWindow(ctx, vendorID, start, end)
	if err != nil {
		return fmt.Errorf("count created products: %w", err)
	}
	updated, err := s.productRepo.CountUpdatedInWindow(ctx, vendorID, start, end)
	if err != nil {
		return fmt.Errorf("count updated products: %w", err)
	}
	report.TotalProductsCreated = int(created)
	report.TotalProductsUpdated = int(updated)
	return nil
}

func (s *reportService) aggregateReviews(ctx context.Context, report *model.DailyVendorReport, vendorID uuid.UUID, start, end time.Time) error {
	summary, err := s.reviewRepo.SummaryInWindow(ctx, vendorID, start, end)
	if err != nil {
		return fmt.Errorf("summarize reviews: %w", err)
	}
	report.TotalReviewsReceived = int(summary.Count)
	report.AverageRating = math.Round(summary.Average*100) / 100
	return nil
}

func (s *reportService) GetByDate(ctx context.Context, vendorID uuid.UUID, date string) (*ReportResponse, error) {
	if _, err := time.ParseInLocation(model.ReportDateLayout, date, s.loc); err != nil {
		return nil, ErrInvalidDate
	}

	report, err := s.reportRepo.FindByVendorAndDate(ctx, vendorID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	return mapReportToResponse(report), nil
}

func (s *reportService) GetRange(ctx context.Context, vendorID uuid.UUID, startDate, endDate string) ([]ReportResponse, error) {
	start, err := time.ParseInLocation(model.ReportDateLayout, startDate, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.ParseInLocation(model.ReportDateLayout, endDate, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	reports, err := s.reportRepo.FindRange(ctx, vendorID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetch report range: %w", err)
	}

	result := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		result = append(result, *mapReportToResponse(&reports[i]))
	}
	return result, nil
}

// maxByQuantity returns the product with the highest quantity; ties resolve
// to the lexicographically lowest product id for reproducible output.
func maxByQuantity(quantities map[uuid.UUID]int) (uuid.UUID, int, bool) {
	var bestID uuid.UUID
	bestQty := 0
	found := false
	for id, qty := range quantities {
		switch {
		case !found, qty > bestQty:
			bestID, bestQty, found = id, qty, true
		case qty == bestQty && id.String() < bestID.String():
			bestID = id
		}
	}
	return bestID, bestQty, found
}

func mapReportToResponse(r *model.DailyVendorReport) *ReportResponse {
	resp := &ReportResponse{
		ID:                         r.ID.String(),
		VendorID:                   r.VendorID.String(),
		ReportDate:                 r.ReportDate,
		TotalProductsCreated:       r.TotalProductsCreated,
		TotalProductsUpdated:       r.TotalProductsUpdated,
		TotalOrders:                r.TotalOrders,
		TotalRevenue:               r.TotalRevenue.StringFixed(2),
		TotalItemsSold:             r.TotalItemsSold,
		TotalCartAdditions:         r.TotalCartAdditions,
		TotalCartRemovals:          r.TotalCartRemovals,
		TotalProductViews:          r.TotalProductViews,
		TotalProductWishlists:      r.TotalProductWishlists,
		BestSellingProductQuantity: r.BestSellingProductQuantity,
		MostViewedProductCount:     r.MostViewedProductCount,
		MostAddedToCartCount:       r.MostAddedToCartCount,
		TotalUniqueBuyers:          r.TotalUniqueBuyers,
		NewCustomers:               r.NewCustomers,
		ReturningCustomers:         r.ReturningCustomers,
		AverageOrderValue:          r.AverageOrderValue.StringFixed(2),
		AverageRating:              r.AverageRating,
		TotalReviewsReceived:       r.TotalReviewsReceived,
		CartConversionRate:         r.CartConversionRate(),
		ViewConversionRate:         r.ViewConversionRate(),
		WishlistConversionRate:     r.WishlistConversionRate(),
		ProductBreakdown:           r.ProductBreakdown,
		CategoryBreakdown:          r.CategoryBreakdown,
		HourlySales:                r.HourlySales,
		GeneratedAt:                r.UpdatedAt.Format(time.RFC3339),
	}
	if r.BestSellingProductID != nil {
		id := r.BestSellingProductID.String()
		resp.BestSellingProductID = &id
	}
	if r.MostViewedProductID != nil {
		id := r.MostViewedProductID.String()
		resp.MostViewedProductID = &id
	}
	if r.MostAddedToCartProductID != nil {
		id := r.MostAddedToCartProductID.String()
		resp.MostAddedToCartProductID = &id
	}
	return resp
}
