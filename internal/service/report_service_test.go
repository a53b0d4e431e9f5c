package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/repository"
)

func setupReportTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{}, &model.Vendor{}, &model.Category{}, &model.Product{},
		&model.Order{}, &model.OrderItem{}, &model.EngagementEvent{},
		&model.Review{}, &model.DailyVendorReport{},
	)
	require.NoError(t, err)

	return db
}

type captureNotifier struct {
	vendorID string
	date     string
	calls    int
}

func (n *captureNotifier) ReportGenerated(vendorID, date string) {
	n.vendorID = vendorID
	n.date = date
	n.calls++
}

func newTestReportService(db *gorm.DB, notifier ReportNotifier) ReportService {
	return NewReportService(
		repository.NewVendorRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewEngagementRepository(db),
		repository.NewReviewRepository(db),
		repository.NewReportRepository(db),
		time.UTC,
		notifier,
	)
}

func createTestVendor(t *testing.T, db *gorm.DB, storeName string) *model.Vendor {
	user := &model.User{
		Username: storeName + "-owner",
		Email:    storeName + "@example.com",
		Password: "hashed",
		Role:     model.RoleVendor,
	}
	require.NoError(t, db.Create(user).Error)

	vendor := &model.Vendor{
		UserID:    user.ID,
		StoreName: storeName,
		Status:    model.VendorStatusActive,
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}

func createTestCustomer(t *testing.T, db *gorm.DB, name string) *model.User {
	user := &model.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     model.RoleCustomer,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, vendor *model.Vendor, sku string, price string, categoryID *uuid.UUID) *model.Product {
	product := &model.Product{
		VendorID:     vendor.ID,
		CategoryID:   categoryID,
		SKU:          sku,
		Name:         "Product " + sku,
		Unit:         "each",
		Price:        decimal.RequireFromString(price),
		CurrentStock: 100,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createTestOrder(t *testing.T, db *gorm.DB, vendor *model.Vendor, customer *model.User, status, total string, createdAt time.Time, items []model.OrderItem) *model.Order {
	order := &model.Order{
		OrderCode:  "ORD-" + uuid.New().String()[:10],
		VendorID:   vendor.ID,
		CustomerID: customer.ID,
		Status:     status,
		Total:      decimal.RequireFromString(total),
		Items:      items,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func createTestEvent(t *testing.T, db *gorm.DB, vendor *model.Vendor, product *model.Product, eventType string, occurredAt time.Time) {
	event := &model.EngagementEvent{
		Type:       eventType,
		ProductID:  product.ID,
		VendorID:   vendor.ID,
		OccurredAt: occurredAt,
	}
	require.NoError(t, db.Create(event).Error)
}

func TestReportService_Generate_AggregatesFullDay(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "green-grocer")
	alice := createTestCustomer(t, db, "alice")
	bob := createTestCustomer(t, db, "bob")

	produce := &model.Category{Name: "Produce"}
	require.NoError(t, db.Create(produce).Error)
	apples := createTestProduct(t, db, vendor, "APL-1", "2.50", &produce.ID)
	milk := createTestProduct(t, db, vendor, "MLK-1", "1.20", nil)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Alice buys 4 apples at 09:xx, Bob buys 2 apples and 5 milks at 17:xx.
	createTestOrder(t, db, vendor, alice, model.OrderStatusPaid, "10.00",
		day.Add(9*time.Hour+15*time.Minute), []model.OrderItem{
			{ProductID: apples.ID, Quantity: 4, UnitPrice: decimal.RequireFromString("2.50")},
		})
	createTestOrder(t, db, vendor, bob, model.OrderStatusDelivered, "11.00",
		day.Add(17*time.Hour+40*time.Minute), []model.OrderItem{
			{ProductID: apples.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("2.50")},
			{ProductID: milk.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("1.20")},
		})

	for i := 0; i < 8; i++ {
		createTestEvent(t, db, vendor, apples, model.EventTypeView, day.Add(10*time.Hour))
	}
	for i := 0; i < 3; i++ {
		createTestEvent(t, db, vendor, milk, model.EventTypeCartAdd, day.Add(11*time.Hour))
	}
	createTestEvent(t, db, vendor, milk, model.EventTypeCartRemove, day.Add(12*time.Hour))
	createTestEvent(t, db, vendor, apples, model.EventTypeWishlist, day.Add(13*time.Hour))

	for _, rating := range []int{4, 5} {
		review := &model.Review{
			ProductID:  apples.ID,
			VendorID:   vendor.ID,
			CustomerID: alice.ID,
			Rating:     rating,
			CreatedAt:  day.Add(14 * time.Hour),
		}
		require.NoError(t, db.Create(review).Error)
	}

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-10")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", report.ReportDate)
	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, "21.00", report.TotalRevenue)
	assert.Equal(t, 11, report.TotalItemsSold)
	assert.Equal(t, "10.50", report.AverageOrderValue)

	assert.Equal(t, 8, report.TotalProductViews)
	assert.Equal(t, 3, report.TotalCartAdditions)
	assert.Equal(t, 1, report.TotalCartRemovals)
	assert.Equal(t, 1, report.TotalProductWishlists)

	require.NotNil(t, report.BestSellingProductID)
	assert.Equal(t, apples.ID.String(), *report.BestSellingProductID)
	assert.Equal(t, 6, report.BestSellingProductQuantity)
	require.NotNil(t, report.MostViewedProductID)
	assert.Equal(t, apples.ID.String(), *report.MostViewedProductID)
	assert.Equal(t, 8, report.MostViewedProductCount)
	require.NotNil(t, report.MostAddedToCartProductID)
	assert.Equal(t, milk.ID.String(), *report.MostAddedToCartProductID)
	assert.Equal(t, 3, report.MostAddedToCartCount)

	assert.Equal(t, 2, report.TotalUniqueBuyers)
	assert.Equal(t, 2, report.NewCustomers)
	assert.Equal(t, 0, report.ReturningCustomers)

	assert.Equal(t, 2, report.TotalReviewsReceived)
	assert.InDelta(t, 4.5, report.AverageRating, 0.001)

	// Fixture products carry wall-clock timestamps outside the report day.
	assert.Equal(t, 0, report.TotalProductsCreated)
	assert.Equal(t, 0, report.TotalProductsUpdated)

	assert.InDelta(t, 2.0/3.0, report.CartConversionRate, 0.001)
	assert.InDelta(t, 0.25, report.ViewConversionRate, 0.001)
	assert.InDelta(t, 2.0, report.WishlistConversionRate, 0.001)

	assert.InDelta(t, 6.0, report.ProductBreakdown[apples.ID.String()], 0.001)
	assert.InDelta(t, 5.0, report.ProductBreakdown[milk.ID.String()], 0.001)
	assert.InDelta(t, 15.0, report.CategoryBreakdown["Produce"], 0.001)
	assert.InDelta(t, 6.0, report.CategoryBreakdown["uncategorized"], 0.001)
	assert.InDelta(t, 10.0, report.HourlySales["09"], 0.001)
	assert.InDelta(t, 11.0, report.HourlySales["17"], 0.001)
}

func TestReportService_Generate_ExcludesCancelledAndRefunded(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "daily-mart")
	customer := createTestCustomer(t, db, "carol")
	other := createTestCustomer(t, db, "dave")
	product := createTestProduct(t, db, vendor, "BRD-1", "25.00", nil)

	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "50.00",
		day.Add(8*time.Hour), []model.OrderItem{
			{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
		})
	createTestOrder(t, db, vendor, other, model.OrderStatusCancelled, "30.00",
		day.Add(9*time.Hour), []model.OrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("30.00")},
		})
	createTestOrder(t, db, vendor, other, model.OrderStatusRefunded, "25.00",
		day.Add(10*time.Hour), []model.OrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("25.00")},
		})

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-11")
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalOrders)
	assert.Equal(t, "50.00", report.TotalRevenue)
	assert.Equal(t, 2, report.TotalItemsSold)
	assert.Equal(t, "50.00", report.AverageOrderValue)
	// Dave only ever cancelled, so he is not a buyer at all.
	assert.Equal(t, 1, report.TotalUniqueBuyers)
}

func TestReportService_Generate_WindowBoundaries(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "corner-shop")
	customer := createTestCustomer(t, db, "erin")
	product := createTestProduct(t, db, vendor, "EGG-1", "5.00", nil)

	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	item := func() []model.OrderItem {
		return []model.OrderItem{{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")}}
	}

	// First instant of the day and last second both belong to the day;
	// next-day midnight does not.
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "5.00", day, item())
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "5.00",
		day.Add(23*time.Hour+59*time.Minute+59*time.Second), item())
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "5.00",
		day.AddDate(0, 0, 1), item())
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "5.00",
		day.Add(-time.Second), item())

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-12")
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, "10.00", report.TotalRevenue)
}

func TestReportService_Generate_Idempotent(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "repeat-mart")
	customer := createTestCustomer(t, db, "frank")
	product := createTestProduct(t, db, vendor, "FSH-1", "12.00", nil)

	day := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "12.00",
		day.Add(12*time.Hour), []model.OrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("12.00")},
		})

	first, err := svc.Generate(ctx, vendor.ID, "2026-03-13")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, vendor.ID, "2026-03-13")
	require.NoError(t, err)
	third, err := svc.Generate(ctx, vendor.ID, "2026-03-13")
	require.NoError(t, err)

	// Regeneration replaces in place: same row identity, same metrics.
	// Only the generation timestamp is allowed to move.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, second.ID, third.ID)

	first.GeneratedAt, third.GeneratedAt = "", ""
	assert.Equal(t, first, third)

	var count int64
	require.NoError(t, db.Model(&model.DailyVendorReport{}).
		Where("vendor_id = ? AND report_date = ?", vendor.ID, "2026-03-13").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReportService_Generate_ZeroActivityDay(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "quiet-store")

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-14")
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalOrders)
	assert.Equal(t, "0.00", report.TotalRevenue)
	assert.Equal(t, "0.00", report.AverageOrderValue)
	assert.Equal(t, 0, report.TotalItemsSold)
	assert.Equal(t, 0, report.TotalUniqueBuyers)
	assert.Nil(t, report.BestSellingProductID)
	assert.Nil(t, report.MostViewedProductID)
	assert.Nil(t, report.MostAddedToCartProductID)
	assert.Zero(t, report.CartConversionRate)
	assert.Zero(t, report.ViewConversionRate)
	assert.Zero(t, report.WishlistConversionRate)
	assert.Zero(t, report.AverageRating)
	assert.Empty(t, report.ProductBreakdown)
	assert.Empty(t, report.HourlySales)
}

func TestReportService_Generate_BestSellerTieBreaksToLowestID(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "tie-break-mart")
	customer := createTestCustomer(t, db, "grace")

	low := &model.Product{
		ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		VendorID: vendor.ID, SKU: "LOW-1", Name: "Low",
		Price: decimal.RequireFromString("1.00"), CurrentStock: 10,
	}
	high := &model.Product{
		ID: uuid.MustParse("99999999-9999-9999-9999-999999999999"),
		VendorID: vendor.ID, SKU: "HIGH-1", Name: "High",
		Price: decimal.RequireFromString("1.00"), CurrentStock: 10,
	}
	require.NoError(t, db.Create(low).Error)
	require.NoError(t, db.Create(high).Error)

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "6.00",
		day.Add(10*time.Hour), []model.OrderItem{
			{ProductID: high.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("1.00")},
			{ProductID: low.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("1.00")},
		})

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-15")
	require.NoError(t, err)

	require.NotNil(t, report.BestSellingProductID)
	assert.Equal(t, low.ID.String(), *report.BestSellingProductID)
	assert.Equal(t, 3, report.BestSellingProductQuantity)
}

func TestReportService_Generate_NewVsReturningCustomers(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "loyalty-mart")
	otherVendor := createTestVendor(t, db, "rival-mart")
	regular := createTestCustomer(t, db, "henry")
	fresh := createTestCustomer(t, db, "iris")
	product := createTestProduct(t, db, vendor, "JAM-1", "4.00", nil)
	rivalProduct := createTestProduct(t, db, otherVendor, "JAM-2", "4.00", nil)

	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	item := func(p *model.Product) []model.OrderItem {
		return []model.OrderItem{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("4.00")}}
	}

	// Henry's first order ever was a week earlier at a different store:
	// first-order history is marketplace-wide, not per-vendor.
	createTestOrder(t, db, otherVendor, regular, model.OrderStatusDelivered, "4.00",
		day.AddDate(0, 0, -7), item(rivalProduct))

	createTestOrder(t, db, vendor, regular, model.OrderStatusPaid, "4.00",
		day.Add(9*time.Hour), item(product))
	createTestOrder(t, db, vendor, fresh, model.OrderStatusPaid, "4.00",
		day.Add(10*time.Hour), item(product))

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-16")
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalUniqueBuyers)
	assert.Equal(t, 1, report.NewCustomers)
	assert.Equal(t, 1, report.ReturningCustomers)
}

func TestReportService_Generate_CancelledHistoryDoesNotAgeCustomer(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "second-chance")
	customer := createTestCustomer(t, db, "july")
	product := createTestProduct(t, db, vendor, "TEA-1", "7.00", nil)

	day := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	item := func() []model.OrderItem {
		return []model.OrderItem{{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("7.00")}}
	}

	// An earlier cancelled order does not count as purchase history, so the
	// customer's first real purchase today makes them new.
	createTestOrder(t, db, vendor, customer, model.OrderStatusCancelled, "7.00",
		day.AddDate(0, 0, -3), item())
	createTestOrder(t, db, vendor, customer, model.OrderStatusPaid, "7.00",
		day.Add(11*time.Hour), item())

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-17")
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewCustomers)
	assert.Equal(t, 0, report.ReturningCustomers)
}

func TestReportService_Generate_NotifiesOnSuccess(t *testing.T) {
	db := setupReportTestDB(t)
	notifier := &captureNotifier{}
	svc := newTestReportService(db, notifier)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "notify-mart")

	_, err := svc.Generate(ctx, vendor.ID, "2026-03-18")
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, vendor.ID.String(), notifier.vendorID)
	assert.Equal(t, "2026-03-18", notifier.date)
}

func TestReportService_Generate_InvalidDate(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)

	vendor := createTestVendor(t, db, "date-mart")

	for _, bad := range []string{"", "2026-3-1", "17/03/2026", "2026-13-40", "yesterday"} {
		_, err := svc.Generate(context.Background(), vendor.ID, bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "date %q", bad)
	}
}

func TestReportService_Generate_VendorNotFound(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)

	_, err := svc.Generate(context.Background(), uuid.New(), "2026-03-18")
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestReportService_GetByDate_NotFound(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)

	vendor := createTestVendor(t, db, "empty-mart")

	_, err := svc.GetByDate(context.Background(), vendor.ID, "2026-03-19")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportService_GetRange(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "range-mart")

	for _, date := range []string{"2026-03-22", "2026-03-20", "2026-03-21"} {
		_, err := svc.Generate(ctx, vendor.ID, date)
		require.NoError(t, err)
	}

	reports, err := svc.GetRange(ctx, vendor.ID, "2026-03-20", "2026-03-22")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "2026-03-20", reports[0].ReportDate)
	assert.Equal(t, "2026-03-21", reports[1].ReportDate)
	assert.Equal(t, "2026-03-22", reports[2].ReportDate)

	// Sub-range only returns the covered days.
	reports, err = svc.GetRange(ctx, vendor.ID, "2026-03-21", "2026-03-21")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2026-03-21", reports[0].ReportDate)
}

func TestReportService_GetRange_InvalidRange(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)

	vendor := createTestVendor(t, db, "backwards-mart")

	_, err := svc.GetRange(context.Background(), vendor.ID, "2026-03-22", "2026-03-20")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetRange(context.Background(), vendor.ID, "not-a-date", "2026-03-20")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestReportService_Generate_CountsProductUpdatesNotCreates(t *testing.T) {
	db := setupReportTestDB(t)
	svc := newTestReportService(db, nil)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "catalog-mart")

	day := time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)

	// Created before the window, touched inside it: counts as an update.
	older := &model.Product{
		VendorID: vendor.ID, SKU: "OLD-1", Name: "Old",
		Price: decimal.RequireFromString("3.00"), CurrentStock: 5,
		CreatedAt: day.AddDate(0, 0, -2), UpdatedAt: day.Add(10 * time.Hour),
	}
	require.NoError(t, db.Create(older).Error)

	// Created inside the window: counts as a create only.
	fresh := &model.Product{
		VendorID: vendor.ID, SKU: "NEW-1", Name: "New",
		Price: decimal.RequireFromString("3.00"), CurrentStock: 5,
		CreatedAt: day.Add(9 * time.Hour), UpdatedAt: day.Add(9 * time.Hour),
	}
	require.NoError(t, db.Create(fresh).Error)

	report, err := svc.Generate(ctx, vendor.ID, "2026-03-23")
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalProductsCreated)
	assert.Equal(t, 1, report.TotalProductsUpdated)
}
