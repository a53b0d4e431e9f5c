package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusRefunded  = "REFUNDED"
)

// ExcludedOrderStatuses lists statuses that do not count toward revenue,
// item totals or buyer metrics. Cancelled money is not revenue.
var ExcludedOrderStatuses = []string{OrderStatusCancelled, OrderStatusRefunded}

// Order represents a customer's purchase from a single vendor
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderCode  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_code"`
	VendorID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor     *Vendor         `gorm:"foreignKey:VendorID" json:"-"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *User           `gorm:"foreignKey:CustomerID" json:"-"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Note       string          `gorm:"type:text" json:"note"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Counted reports whether the order participates in revenue and sales metrics
func (o *Order) Counted() bool {
	for _, s := range ExcludedOrderStatuses {
		if o.Status == s {
			return false
		}
	}
	return true
}

// OrderItem represents a line item within an Order
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
