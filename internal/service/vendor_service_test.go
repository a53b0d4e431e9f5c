package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/repository"
)

func setupVendorTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Vendor{}))
	return db
}

func newTestVendorService(db *gorm.DB) VendorService {
	return NewVendorService(
		repository.NewVendorRepository(db),
		repository.NewUserRepository(db),
		repository.NewTransactionManager(db),
	)
}

func TestVendorService_Create_PromotesUserRole(t *testing.T) {
	db := setupVendorTestDB(t)
	svc := newTestVendorService(db)
	ctx := context.Background()

	user := createTestCustomer(t, db, "tina")

	resp, err := svc.Create(ctx, user.ID, CreateVendorRequest{
		StoreName:   "Tina's Greens",
		Description: "Organic veg",
	})
	require.NoError(t, err)
	assert.Equal(t, model.VendorStatusActive, resp.Status)
	assert.Equal(t, "Tina's Greens", resp.StoreName)

	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, model.RoleVendor, stored.Role)
}

func TestVendorService_Create_RejectsSecondProfile(t *testing.T) {
	db := setupVendorTestDB(t)
	svc := newTestVendorService(db)
	ctx := context.Background()

	user := createTestCustomer(t, db, "uma")

	_, err := svc.Create(ctx, user.ID, CreateVendorRequest{StoreName: "Uma's"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, CreateVendorRequest{StoreName: "Uma's Second"})
	assert.ErrorIs(t, err, ErrVendorExists)
}

func TestVendorService_Create_RejectsTakenStoreName(t *testing.T) {
	db := setupVendorTestDB(t)
	svc := newTestVendorService(db)
	ctx := context.Background()

	first := createTestCustomer(t, db, "vic")
	second := createTestCustomer(t, db, "wendy")

	_, err := svc.Create(ctx, first.ID, CreateVendorRequest{StoreName: "Shared Name"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, second.ID, CreateVendorRequest{StoreName: "Shared Name"})
	assert.ErrorIs(t, err, ErrStoreNameTaken)
}

func TestVendorService_SetStatus(t *testing.T) {
	db := setupVendorTestDB(t)
	svc := newTestVendorService(db)
	ctx := context.Background()

	vendor := createTestVendor(t, db, "status-mart")

	resp, err := svc.SetStatus(ctx, vendor.ID, model.VendorStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, model.VendorStatusSuspended, resp.Status)

	_, err = svc.SetStatus(ctx, vendor.ID, "BANNED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, uuid.New(), model.VendorStatusActive)
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestVendorService_GetByUserID_NotFound(t *testing.T) {
	db := setupVendorTestDB(t)
	svc := newTestVendorService(db)

	_, err := svc.GetByUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrVendorNotFound)
}
