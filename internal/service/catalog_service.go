package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Price       string `json:"price" binding:"required"`
	Stock       int    `json:"stock"`
	CategoryID  string `json:"category_id"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
	CategoryID  *string `json:"category_id"`
}

type ProductResponse struct {
	ID           string  `json:"id"`
	VendorID     string  `json:"vendor_id"`
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Unit         string  `json:"unit"`
	Price        string  `json:"price"`
	CurrentStock int     `json:"current_stock"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// --- Interface ---

type CatalogService interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error)
	ListProducts(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]ProductResponse, int64, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error)
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogService{productRepo: productRepo, categoryRepo: categoryRepo}
}

func mapProductToResponse(p *model.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:           p.ID.String(),
		VendorID:     p.VendorID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Unit:         p.Unit,
		Price:        p.Price.StringFixed(2),
		CurrentStock: p.CurrentStock,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		resp.CategoryID = &id
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	return resp
}

func (s *catalogService) CreateProduct(ctx context.Context, vendorID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("invalid price")
	}

	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, errors.New("sku already exists")
	}

	product := &model.Product{
		VendorID:     vendorID,
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Unit:         req.Unit,
		Price:        price,
		CurrentStock: req.Stock,
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("fetch category: %w", err)
		}
		product.CategoryID = &categoryID
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}
	if product.VendorID != vendorID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			return nil, errors.New("invalid price")
		}
		product.Price = price
	}
	if req.Stock != nil {
		product.CurrentStock = *req.Stock
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		product.CategoryID = &categoryID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("fetch product: %w", err)
	}
	if product.VendorID != vendorID {
		return ErrForbidden
	}
	return s.productRepo.Delete(ctx, productID)
}

func (s *catalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}
	return mapProductToResponse(product), nil
}

func (s *catalogService) ListProducts(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.ListByVendor(ctx, vendorID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, *mapProductToResponse(&products[i]))
	}
	return result, total, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	if _, err := s.categoryRepo.FindByName(ctx, req.Name); err == nil {
		return nil, errors.New("category already exists")
	}

	category := &model.Category{Name: req.Name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &CategoryResponse{ID: category.ID.String(), Name: category.Name}, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	result := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		result = append(result, CategoryResponse{ID: c.ID.String(), Name: c.Name})
	}
	return result, nil
}
