package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorStatus constants
const (
	VendorStatusActive    = "ACTIVE"
	VendorStatusSuspended = "SUSPENDED"
)

// Vendor represents a marketplace seller who owns products and receives orders
type Vendor struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StoreName   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"store_name"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"` // ACTIVE, SUSPENDED
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vendor) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
