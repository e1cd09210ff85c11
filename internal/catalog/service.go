package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/pkg/db/models"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/pagination"
)

const searchResultCap = 20

// Service exposes restaurant and menu management plus the snapshot read
// the cart and checkout components depend on.
type Service interface {
	CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*RestaurantSummary, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (*RestaurantSummary, error)
	ListRestaurants(ctx context.Context, params pagination.Params) ([]RestaurantSummary, string, error)
	CreateMenuItem(ctx context.Context, restaurantID uuid.UUID, input CreateMenuItemInput) (*MenuItemSummary, error)
	ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]MenuItemSummary, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItemSnapshot, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type service struct {
	repo Repository
}

// NewService constructs a catalog service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*RestaurantSummary, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name is required")
	}

	restaurant := &models.Restaurant{
		Name:    strings.TrimSpace(input.Name),
		Address: input.Address,
		Cuisine: input.Cuisine,
	}
	created, err := s.repo.CreateRestaurant(ctx, restaurant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert restaurant")
	}
	summary := restaurantSummary(created)
	return &summary, nil
}

func (s *service) GetRestaurant(ctx context.Context, id uuid.UUID) (*RestaurantSummary, error) {
	restaurant, err := s.repo.FindRestaurantByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load restaurant")
	}
	summary := restaurantSummary(restaurant)
	return &summary, nil
}

func (s *service) ListRestaurants(ctx context.Context, params pagination.Params) ([]RestaurantSummary, string, error) {
	rows, next, err := s.repo.ListRestaurants(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list restaurants")
	}
	summaries := make([]RestaurantSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, restaurantSummary(&rows[i]))
	}
	return summaries, next, nil
}

func (s *service) CreateMenuItem(ctx context.Context, restaurantID uuid.UUID, input CreateMenuItemInput) (*MenuItemSummary, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	if _, err := s.repo.FindRestaurantByID(ctx, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load restaurant")
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Price:        input.Price,
		IsAvailable:  available,
	}
	created, err := s.repo.CreateMenuItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert menu item")
	}
	summary := menuItemSummary(created)
	return &summary, nil
}

func (s *service) ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]MenuItemSummary, error) {
	if _, err := s.repo.FindRestaurantByID(ctx, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load restaurant")
	}

	items, err := s.repo.ListMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list menu items")
	}
	summaries := make([]MenuItemSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, menuItemSummary(&items[i]))
	}
	return summaries, nil
}

// GetMenuItem returns the live snapshot the cart and checkout flows price
// against. A missing row is reported as unavailable rather than not found so
// callers holding stale cart lines get a single failure mode.
func (s *service) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItemSnapshot, error) {
	item, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item does not exist").
				WithDetails(map[string]string{"menu_item_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load menu item")
	}
	return &MenuItemSnapshot{
		MenuItemID:   item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Price:        item.Price,
		Available:    item.IsAvailable,
	}, nil
}

func (s *service) Search(ctx context.Context, query string) (*SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}

	restaurants, err := s.repo.SearchRestaurants(ctx, trimmed, searchResultCap)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search restaurants")
	}
	items, err := s.repo.SearchMenuItems(ctx, trimmed, searchResultCap)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search menu items")
	}

	result := &SearchResult{
		Restaurants: make([]RestaurantSummary, 0, len(restaurants)),
		MenuItems:   make([]MenuItemSummary, 0, len(items)),
	}
	for i := range restaurants {
		result.Restaurants = append(result.Restaurants, restaurantSummary(&restaurants[i]))
	}
	for i := range items {
		result.MenuItems = append(result.MenuItems, menuItemSummary(&items[i]))
	}
	return result, nil
}

func restaurantSummary(r *models.Restaurant) RestaurantSummary {
	return RestaurantSummary{
		ID:      r.ID,
		Name:    r.Name,
		Address: r.Address,
		Cuisine: r.Cuisine,
		Rating:  r.Rating,
	}
}

func menuItemSummary(m *models.MenuItem) MenuItemSummary {
	return MenuItemSummary{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		IsAvailable:  m.IsAvailable,
	}
}
