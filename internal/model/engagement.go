package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engagement event types
const (
	EventTypeView       = "VIEW"
	EventTypeCartAdd    = "CART_ADD"
	EventTypeCartRemove = "CART_REMOVE"
	EventTypeWishlist   = "WISHLIST"
)

// EngagementEvent is an append-only record of a shopper interaction with a product.
// It feeds interest metrics only; it is never updated after insert.
type EngagementEvent struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type       string     `gorm:"type:varchar(20);not null;index" json:"type"` // VIEW, CART_ADD, CART_REMOVE, WISHLIST
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	VendorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"` // Nullable: anonymous browsing still counts
	OccurredAt time.Time  `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (e *EngagementEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
