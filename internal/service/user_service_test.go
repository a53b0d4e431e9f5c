package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/repository"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.User{}))
	return db
}

func TestUserService_Register_CreatesCustomer(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Username: "amy",
		Email:    "amy@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, resp.Role)

	// The stored password is hashed, never the raw value.
	var stored model.User
	require.NoError(t, db.First(&stored, "email = ?", "amy@example.com").Error)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestUserService_Register_RejectsDuplicates(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "ben", Email: "ben@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "ben", Email: "other@example.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "benji", Email: "ben@example.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_Register_RejectsMalformedEmail(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "cara", Email: "not-an-email", Password: "secret123",
	})
	require.Error(t, err)
}

func TestUserService_Login(t *testing.T) {
	db := setupUserTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "dana", Email: "dana@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	token, err := svc.Login(ctx, LoginRequest{Email: "dana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	_, err = svc.Login(ctx, LoginRequest{Email: "dana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
