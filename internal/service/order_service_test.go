package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/repository"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{}, &model.Vendor{}, &model.Category{}, &model.Product{},
		&model.Order{}, &model.OrderItem{}, &model.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func newTestOrderService(db *gorm.DB) OrderService {
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func TestOrderService_PlaceOrder_PricesFromCatalogAndDecrementsStock(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "fresh-farm")
	customer := createTestCustomer(t, db, "kim")
	apples := createTestProduct(t, db, vendor, "APL-10", "2.50", nil)
	milk := createTestProduct(t, db, vendor, "MLK-10", "1.20", nil)

	resp, err := svc.PlaceOrder(ctx, customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{
			{ProductID: apples.ID.String(), Quantity: 4},
			{ProductID: milk.ID.String(), Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, vendor.ID.String(), resp.VendorID)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, "12.40", resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "2.50", resp.Items[0].UnitPrice)

	// Fresh struct per lookup: a populated primary key would leak into the
	// next First query as an extra condition.
	var storedApples model.Product
	require.NoError(t, db.First(&storedApples, "id = ?", apples.ID).Error)
	assert.Equal(t, 96, storedApples.CurrentStock)

	var storedMilk model.Product
	require.NoError(t, db.First(&storedMilk, "id = ?", milk.ID).Error)
	assert.Equal(t, 98, storedMilk.CurrentStock)
}

func TestOrderService_PlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "small-stand")
	customer := createTestCustomer(t, db, "lee")
	apples := createTestProduct(t, db, vendor, "APL-20", "2.50", nil)
	scarce := &model.Product{
		VendorID: vendor.ID, SKU: "SCR-20", Name: "Scarce",
		Price: decimal.RequireFromString("9.00"), CurrentStock: 1,
	}
	require.NoError(t, db.Create(scarce).Error)

	_, err := svc.PlaceOrder(ctx, customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{
			{ProductID: apples.ID.String(), Quantity: 2},
			{ProductID: scarce.ID.String(), Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Whole transaction rolled back: the first line's stock is untouched
	// and no order row exists.
	var stored model.Product
	require.NoError(t, db.First(&stored, "id = ?", apples.ID).Error)
	assert.Equal(t, 100, stored.CurrentStock)

	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderService_PlaceOrder_RejectsMixedVendors(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendorA := createTestVendor(t, db, "store-a")
	vendorB := createTestVendor(t, db, "store-b")
	customer := createTestCustomer(t, db, "max")
	fromA := createTestProduct(t, db, vendorA, "A-1", "1.00", nil)
	fromB := createTestProduct(t, db, vendorB, "B-1", "1.00", nil)

	_, err := svc.PlaceOrder(ctx, customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{
			{ProductID: fromA.ID.String(), Quantity: 1},
			{ProductID: fromB.ID.String(), Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same vendor")
}

func TestOrderService_PlaceOrder_UnknownProduct(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)

	customer := createTestCustomer(t, db, "nina")

	_, err := svc.PlaceOrder(context.Background(), customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{{ProductID: uuid.New().String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestOrderService_CancelOrder_RestoresStockAndAudits(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "cancel-mart")
	customer := createTestCustomer(t, db, "omar")
	product := createTestProduct(t, db, vendor, "CAN-1", "3.00", nil)

	placed, err := svc.PlaceOrder(ctx, customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{{ProductID: product.ID.String(), Quantity: 5}},
	})
	require.NoError(t, err)

	orderID := uuid.MustParse(placed.ID)
	cancelled, err := svc.CancelOrder(ctx, customer.ID, orderID, false)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	var stored model.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 100, stored.CurrentStock)

	var entry model.AuditLog
	require.NoError(t, db.First(&entry, "action = ?", model.ActionCancelOrder).Error)
	assert.Equal(t, placed.ID, entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, customer.ID, *entry.UserID)
}

func TestOrderService_CancelOrder_OnlyOwnerOrAdmin(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "guard-mart")
	owner := createTestCustomer(t, db, "pam")
	stranger := createTestCustomer(t, db, "quinn")
	product := createTestProduct(t, db, vendor, "GRD-1", "3.00", nil)

	placed, err := svc.PlaceOrder(ctx, owner.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{{ProductID: product.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := uuid.MustParse(placed.ID)

	_, err = svc.CancelOrder(ctx, stranger.ID, orderID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	// An admin who is not the buyer may cancel.
	_, err = svc.CancelOrder(ctx, stranger.ID, orderID, true)
	require.NoError(t, err)
}

func TestOrderService_CancelOrder_RejectsShipped(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "shipped-mart")
	customer := createTestCustomer(t, db, "rose")
	product := createTestProduct(t, db, vendor, "SHP-1", "3.00", nil)

	placed, err := svc.PlaceOrder(ctx, customer.ID, PlaceOrderRequest{
		Items: []PlaceOrderItem{{ProductID: product.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := uuid.MustParse(placed.ID)

	require.NoError(t, db.Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", model.OrderStatusShipped).Error)

	_, err = svc.CancelOrder(ctx, customer.ID, orderID, false)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_CancelOrder_NotFound(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newTestOrderService(db)

	customer := createTestCustomer(t, db, "sam")

	_, err := svc.CancelOrder(context.Background(), customer.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
