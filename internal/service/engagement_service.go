package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RecordEventRequest struct {
	Type       string `json:"type" binding:"required"`
	ProductID  string `json:"product_id" binding:"required"`
	OccurredAt string `json:"occurred_at"` // RFC3339, defaults to now
}

type EventResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	ProductID  string `json:"product_id"`
	VendorID   string `json:"vendor_id"`
	OccurredAt string `json:"occurred_at"`
}

// --- Interface ---

type EngagementService interface {
	Record(ctx context.Context, customerID *uuid.UUID, req RecordEventRequest) (*EventResponse, error)
}

type engagementService struct {
	engagementRepo repository.EngagementRepository
	productRepo    repository.ProductRepository
}

func NewEngagementService(engagementRepo repository.EngagementRepository, productRepo repository.ProductRepository) EngagementService {
	return &engagementService{engagementRepo: engagementRepo, productRepo: productRepo}
}

func validEventType(t string) bool {
	switch t {
	case model.EventTypeView, model.EventTypeCartAdd, model.EventTypeCartRemove, model.EventTypeWishlist:
		return true
	}
	return false
}

// Record appends one engagement event. The vendor id is resolved from the
// product so clients cannot attribute interest to the wrong store.
func (s *engagementService) Record(ctx context.Context, customerID *uuid.UUID, req RecordEventRequest) (*EventResponse, error) {
	if !validEventType(req.Type) {
		return nil, ErrInvalidEventType
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, errors.New("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, errors.New("invalid occurred_at: expected RFC3339")
		}
	}

	event := &model.EngagementEvent{
		Type:       req.Type,
		ProductID:  productID,
		VendorID:   product.VendorID,
		CustomerID: customerID,
		OccurredAt: occurredAt,
	}
	if err := s.engagementRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("record engagement event: %w", err)
	}

	return &EventResponse{
		ID:         event.ID.String(),
		Type:       event.Type,
		ProductID:  event.ProductID.String(),
		VendorID:   event.VendorID.String(),
		OccurredAt: event.OccurredAt.Format(time.RFC3339),
	}, nil
}
