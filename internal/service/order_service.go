package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type PlaceOrderItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	Items []PlaceOrderItem `json:"items" binding:"required,min=1,dive"`
	Note  string           `json:"note"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderResponse struct {
	ID         string              `json:"id"`
	OrderCode  string              `json:"order_code"`
	VendorID   string              `json:"vendor_id"`
	CustomerID string              `json:"customer_id"`
	Status     string              `json:"status"`
	Total      string              `json:"total"`
	Note       string              `json:"note"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  string              `json:"created_at"`
}

// --- Interface ---

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error)
	CancelOrder(ctx context.Context, actorID, orderID uuid.UUID, isAdmin bool) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]OrderResponse, int64, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, page, limit int) ([]OrderResponse, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) OrderService {
	return &orderService{orderRepo: orderRepo, productRepo: productRepo, auditRepo: auditRepo, txManager: txManager}
}

func mapOrderToResponse(o *model.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return &OrderResponse{
		ID:         o.ID.String(),
		OrderCode:  o.OrderCode,
		VendorID:   o.VendorID.String(),
		CustomerID: o.CustomerID.String(),
		Status:     o.Status,
		Total:      o.Total.StringFixed(2),
		Note:       o.Note,
		Items:      items,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

func newOrderCode() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
}

// PlaceOrder creates one order against a single vendor, pricing items from
// the current catalog and decrementing stock inside one transaction.
func (s *orderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	var order *model.Order

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var vendorID uuid.UUID
		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				return errors.New("invalid product id")
			}

			product, err := s.productRepo.FindByID(txCtx, productID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("fetch product: %w", err)
			}

			if vendorID == uuid.Nil {
				vendorID = product.VendorID
			} else if vendorID != product.VendorID {
				return errors.New("all items must belong to the same vendor")
			}

			if product.CurrentStock < line.Quantity {
				return ErrInsufficientStock
			}
			if err := s.productRepo.AdjustStock(txCtx, productID, -line.Quantity); err != nil {
				return fmt.Errorf("adjust stock: %w", err)
			}

			items = append(items, model.OrderItem{
				ProductID: productID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order = &model.Order{
			OrderCode:  newOrderCode(),
			VendorID:   vendorID,
			CustomerID: customerID,
			Status:     model.OrderStatusPending,
			Total:      total.Round(2),
			Note:       req.Note,
			Items:      items,
		}
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_code": order.OrderCode,
		"vendor_id":  order.VendorID.String(),
		"total":      order.Total.String(),
	}).Info("order placed")

	return mapOrderToResponse(order), nil
}

// CancelOrder flips the order to CANCELLED and restores stock. Only the
// buying customer or an admin may cancel; shipped orders cannot be.
func (s *orderService) CancelOrder(ctx context.Context, actorID, orderID uuid.UUID, isAdmin bool) (*OrderResponse, error) {
	var cancelled *model.Order

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDWithItems(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("fetch order: %w", err)
		}

		if !isAdmin && order.CustomerID != actorID {
			return ErrForbidden
		}
		if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusPaid {
			return ErrInvalidStatus
		}

		for _, item := range order.Items {
			if err := s.productRepo.AdjustStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}
		if err := s.orderRepo.UpdateStatus(txCtx, orderID, model.OrderStatusCancelled); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		entry := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCancelOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderCode,
			CreatedAt:  time.Now(),
		}
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}

		order.Status = model.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapOrderToResponse(cancelled), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]OrderResponse, int64, error) {
	orders, total, err := s.orderRepo.ListByVendor(ctx, vendorID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendor orders: %w", err)
	}
	return mapOrderList(orders), total, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, page, limit int) ([]OrderResponse, int64, error) {
	orders, total, err := s.orderRepo.ListByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list customer orders: %w", err)
	}
	return mapOrderList(orders), total, nil
}

func mapOrderList(orders []model.Order) []OrderResponse {
	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, *mapOrderToResponse(&orders[i]))
	}
	return result
}
