package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateVendorRequest struct {
	StoreName   string `json:"store_name" binding:"required"`
	Description string `json:"description"`
}

type VendorResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	StoreName   string `json:"store_name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type VendorService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateVendorRequest) (*VendorResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*VendorResponse, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*VendorResponse, error)
	List(ctx context.Context, page, limit int) ([]VendorResponse, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*VendorResponse, error)
}

type vendorService struct {
	vendorRepo repository.VendorRepository
	userRepo   repository.UserRepository
	txManager  repository.TransactionManager
}

func NewVendorService(vendorRepo repository.VendorRepository, userRepo repository.UserRepository, txManager repository.TransactionManager) VendorService {
	return &vendorService{vendorRepo: vendorRepo, userRepo: userRepo, txManager: txManager}
}

func mapVendorToResponse(v *model.Vendor) *VendorResponse {
	return &VendorResponse{
		ID:          v.ID.String(),
		UserID:      v.UserID.String(),
		StoreName:   v.StoreName,
		Description: v.Description,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

// Create opens a vendor profile for the user and promotes their role.
// Both writes happen in one transaction so a half-created vendor cannot exist.
func (s *vendorService) Create(ctx context.Context, userID uuid.UUID, req CreateVendorRequest) (*VendorResponse, error) {
	if _, err := s.vendorRepo.FindByUserID(ctx, userID); err == nil {
		return nil, ErrVendorExists
	}
	if _, err := s.vendorRepo.FindByStoreName(ctx, req.StoreName); err == nil {
		return nil, ErrStoreNameTaken
	}

	vendor := &model.Vendor{
		UserID:      userID,
		StoreName:   req.StoreName,
		Description: req.Description,
		Status:      model.VendorStatusActive,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Create(txCtx, vendor); err != nil {
			return fmt.Errorf("create vendor: %w", err)
		}
		if err := s.userRepo.UpdateRole(txCtx, userID, model.RoleVendor); err != nil {
			return fmt.Errorf("promote user to vendor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"vendor_id":  vendor.ID.String(),
		"store_name": vendor.StoreName,
	}).Info("vendor profile created")

	return mapVendorToResponse(vendor), nil
}

func (s *vendorService) GetByID(ctx context.Context, id uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("fetch vendor: %w", err)
	}
	return mapVendorToResponse(vendor), nil
}

func (s *vendorService) GetByUserID(ctx context.Context, userID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("fetch vendor: %w", err)
	}
	return mapVendorToResponse(vendor), nil
}

func (s *vendorService) List(ctx context.Context, page, limit int) ([]VendorResponse, int64, error) {
	vendors, total, err := s.vendorRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}

	result := make([]VendorResponse, 0, len(vendors))
	for i := range vendors {
		result = append(result, *mapVendorToResponse(&vendors[i]))
	}
	return result, total, nil
}

func (s *vendorService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*VendorResponse, error) {
	if status != model.VendorStatusActive && status != model.VendorStatusSuspended {
		return nil, ErrInvalidStatus
	}

	if _, err := s.vendorRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("fetch vendor: %w", err)
	}

	if err := s.vendorRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update vendor status: %w", err)
	}
	return s.GetByID(ctx, id)
}
