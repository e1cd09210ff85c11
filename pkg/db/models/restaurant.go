package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant is a catalog root owning a menu.
type Restaurant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Address   *string         `gorm:"column:address"`
	Cuisine   *string         `gorm:"column:cuisine"`
	Rating    decimal.Decimal `gorm:"column:rating;type:numeric(2,1);not null;default:0.0"`
	MenuItems []MenuItem      `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
