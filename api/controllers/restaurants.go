package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/tableside-backend/api/responses"
	"github.com/tableside/tableside-backend/api/validators"
	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/pkg/logger"
	"github.com/tableside/tableside-backend/pkg/pagination"
)

type createRestaurantRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Cuisine *string `json:"cuisine,omitempty" validate:"omitempty,max=100"`
}

type createMenuItemRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"is_available,omitempty"`
}

type restaurantResponse struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Address *string         `json:"address,omitempty"`
	Cuisine *string         `json:"cuisine,omitempty"`
	Rating  decimal.Decimal `json:"rating"`
}

type menuItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	IsAvailable  bool            `json:"is_available"`
}

type restaurantListResponse struct {
	Restaurants []restaurantResponse `json:"restaurants"`
	NextCursor  string               `json:"next_cursor,omitempty"`
}

func newRestaurantResponse(s catalog.RestaurantSummary) restaurantResponse {
	return restaurantResponse{ID: s.ID, Name: s.Name, Address: s.Address, Cuisine: s.Cuisine, Rating: s.Rating}
}

func newMenuItemResponse(s catalog.MenuItemSummary) menuItemResponse {
	return menuItemResponse{
		ID:           s.ID,
		RestaurantID: s.RestaurantID,
		Name:         s.Name,
		Description:  s.Description,
		Price:        s.Price,
		IsAvailable:  s.IsAvailable,
	}
}

// CreateRestaurant registers a restaurant.
func CreateRestaurant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRestaurantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateRestaurant(r.Context(), catalog.CreateRestaurantInput{
			Name:    body.Name,
			Address: body.Address,
			Cuisine: body.Cuisine,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRestaurantResponse(*created))
	}
}

// ListRestaurants returns a cursor-paginated restaurant listing.
func ListRestaurants(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListRestaurants(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := restaurantListResponse{
			Restaurants: make([]restaurantResponse, 0, len(rows)),
			NextCursor:  next,
		}
		for _, row := range rows {
			payload.Restaurants = append(payload.Restaurants, newRestaurantResponse(row))
		}
		responses.WriteSuccess(w, payload)
	}
}

// GetRestaurant fetches a single restaurant.
func GetRestaurant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := uuidParam(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.GetRestaurant(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRestaurantResponse(*restaurant))
	}
}

// CreateMenuItem adds an item to a restaurant's menu.
func CreateMenuItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := uuidParam(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createMenuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateMenuItem(r.Context(), restaurantID, catalog.CreateMenuItemInput{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			IsAvailable: body.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMenuItemResponse(*created))
	}
}

// ListMenu returns a restaurant's menu.
func ListMenu(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := uuidParam(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMenu(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]menuItemResponse, 0, len(items))
		for _, item := range items {
			payload = append(payload, newMenuItemResponse(item))
		}
		responses.WriteSuccess(w, map[string]any{"items": payload})
	}
}
