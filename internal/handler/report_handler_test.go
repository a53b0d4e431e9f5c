package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/service"
)

func setupReportHandlerTest(t *testing.T) (*ReportHandler, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Vendor{}))

	vendorService := service.NewVendorService(
		repository.NewVendorRepository(db),
		repository.NewUserRepository(db),
		repository.NewTransactionManager(db),
	)
	return NewReportHandler(nil, vendorService, nil), db
}

func createVendorWithOwner(t *testing.T, db *gorm.DB, storeName string) (*model.User, *model.Vendor) {
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
	return user, vendor
}

func testContext(t *testing.T, userID, role string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	c.Set("userID", userID)
	c.Set("userRole", role)
	return c, w
}

func TestResolveVendorID_VendorDefaultsToOwnStore(t *testing.T) {
	h, db := setupReportHandlerTest(t)
	user, vendor := createVendorWithOwner(t, db, "own-store")

	c, _ := testContext(t, user.ID.String(), model.RoleVendor)
	id, ok := h.resolveVendorID(c, "")
	require.True(t, ok)
	assert.Equal(t, vendor.ID, id)
}

func TestResolveVendorID_AcceptsOwnIDInAnyCasing(t *testing.T) {
	h, db := setupReportHandlerTest(t)
	user, vendor := createVendorWithOwner(t, db, "cased-store")

	// An uppercase spelling of the caller's own id is the same vendor.
	c, w := testContext(t, user.ID.String(), model.RoleVendor)
	id, ok := h.resolveVendorID(c, strings.ToUpper(vendor.ID.String()))
	require.True(t, ok, "response: %s", w.Body.String())
	assert.Equal(t, vendor.ID, id)
}

func TestResolveVendorID_RejectsAnotherVendor(t *testing.T) {
	h, db := setupReportHandlerTest(t)
	user, _ := createVendorWithOwner(t, db, "jealous-store")
	_, rival := createVendorWithOwner(t, db, "rival-store")

	c, w := testContext(t, user.ID.String(), model.RoleVendor)
	_, ok := h.resolveVendorID(c, rival.ID.String())
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolveVendorID_RejectsMalformedID(t *testing.T) {
	h, db := setupReportHandlerTest(t)
	user, _ := createVendorWithOwner(t, db, "strict-store")

	c, w := testContext(t, user.ID.String(), model.RoleVendor)
	_, ok := h.resolveVendorID(c, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveVendorID_AdminMustNameAVendor(t *testing.T) {
	h, _ := setupReportHandlerTest(t)

	c, w := testContext(t, uuid.New().String(), model.RoleAdmin)
	_, ok := h.resolveVendorID(c, "")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	target := uuid.New()
	c, _ = testContext(t, uuid.New().String(), model.RoleAdmin)
	id, ok := h.resolveVendorID(c, target.String())
	require.True(t, ok)
	assert.Equal(t, target, id)
}
