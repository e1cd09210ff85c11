package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableside/tableside-backend/pkg/enums"
	"github.com/tableside/tableside-backend/pkg/types"
)

// Cart is the mutable pre-order aggregate. Every write bumps Version; the
// cart store only commits a write whose expected version still matches, so
// concurrent mutations linearize into one winner per version.
//
// ResultingOrderID is informational traceability only, set once when the
// cart is finalized. Control flow never dereferences it.
type Cart struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID      *uuid.UUID       `gorm:"column:owner_user_id;type:uuid"`
	GuestToken       *string          `gorm:"column:guest_token"`
	Status           enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'open'"`
	Version          int64            `gorm:"column:version;not null;default:1"`
	ResultingOrderID *uuid.UUID       `gorm:"column:resulting_order_id;type:uuid"`
	Items            []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Owner reconstructs the opaque owner ref from the persisted columns.
func (c *Cart) Owner() types.OwnerRef {
	return types.OwnerRef{UserID: c.OwnerUserID, GuestToken: c.GuestToken}
}

// FindItem returns the line for the given menu item, or nil.
func (c *Cart) FindItem(menuItemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].MenuItemID == menuItemID {
			return &c.Items[i]
		}
	}
	return nil
}
