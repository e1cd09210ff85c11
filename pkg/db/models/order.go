package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/tableside-backend/pkg/types"
)

// Order is the immutable record emitted by checkout. It references its
// source cart by id only; the cart holds no back-pointer.
type Order struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SourceCartID uuid.UUID       `gorm:"column:source_cart_id;type:uuid;not null;uniqueIndex"`
	OwnerUserID  *uuid.UUID      `gorm:"column:owner_user_id;type:uuid"`
	GuestToken   *string         `gorm:"column:guest_token"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	LineItems    []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Owner reconstructs the opaque owner ref from the persisted columns.
func (o *Order) Owner() types.OwnerRef {
	return types.OwnerRef{UserID: o.OwnerUserID, GuestToken: o.GuestToken}
}
