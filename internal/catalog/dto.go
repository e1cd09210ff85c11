package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItemSnapshot is the read-model the checkout subsystem consumes: the
// live price and availability of one menu item at lookup time.
type MenuItemSnapshot struct {
	MenuItemID   uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Price        decimal.Decimal
	Available    bool
}

// CreateRestaurantInput carries the fields accepted when registering a restaurant.
type CreateRestaurantInput struct {
	Name    string
	Address *string
	Cuisine *string
}

// CreateMenuItemInput carries the fields accepted when adding a menu item.
type CreateMenuItemInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	IsAvailable *bool
}

// SearchResult groups restaurant and menu item matches for one query.
type SearchResult struct {
	Restaurants []RestaurantSummary
	MenuItems   []MenuItemSummary
}

// RestaurantSummary is the listing projection of a restaurant.
type RestaurantSummary struct {
	ID      uuid.UUID
	Name    string
	Address *string
	Cuisine *string
	Rating  decimal.Decimal
}

// MenuItemSummary is the listing projection of a menu item.
type MenuItemSummary struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  *string
	Price        decimal.Decimal
	IsAvailable  bool
}
