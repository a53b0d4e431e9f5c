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

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type ReviewResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	VendorID   string `json:"vendor_id"`
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

type ReviewService interface {
	Create(ctx context.Context, customerID, productID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]ReviewResponse, int64, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

func mapReviewToResponse(r *model.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:         r.ID.String(),
		ProductID:  r.ProductID.String(),
		VendorID:   r.VendorID.String(),
		CustomerID: r.CustomerID.String(),
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *reviewService) Create(ctx context.Context, customerID, productID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	review := &model.Review{
		ProductID:  productID,
		VendorID:   product.VendorID,
		CustomerID: customerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return mapReviewToResponse(review), nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]ReviewResponse, int64, error) {
	reviews, total, err := s.reviewRepo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	result := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		result = append(result, *mapReviewToResponse(&reviews[i]))
	}
	return result, total, nil
}
