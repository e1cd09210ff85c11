package controllers

import (
	"net/http"

	"github.com/tableside/tableside-backend/api/responses"
	"github.com/tableside/tableside-backend/api/validators"
	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/pkg/logger"
)

const maxSearchQueryLen = 100

type searchResponse struct {
	Restaurants []restaurantResponse `json:"restaurants"`
	MenuItems   []menuItemResponse   `json:"menu_items"`
}

// Search runs a combined restaurant and menu item search.
func Search(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen)

		result, err := svc.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := searchResponse{
			Restaurants: make([]restaurantResponse, 0, len(result.Restaurants)),
			MenuItems:   make([]menuItemResponse, 0, len(result.MenuItems)),
		}
		for _, row := range result.Restaurants {
			payload.Restaurants = append(payload.Restaurants, newRestaurantResponse(row))
		}
		for _, item := range result.MenuItems {
			payload.MenuItems = append(payload.MenuItems, newMenuItemResponse(item))
		}
		responses.WriteSuccess(w, payload)
	}
}
