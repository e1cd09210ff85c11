package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/tableside-backend/api/responses"
	"github.com/tableside/tableside-backend/internal/orders"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/logger"
)

type orderLineResponse struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	SourceCartID uuid.UUID           `json:"source_cart_id"`
	Total        decimal.Decimal     `json:"total"`
	LineItems    []orderLineResponse `json:"line_items"`
	CreatedAt    time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	payload := orderResponse{
		ID:           order.ID,
		SourceCartID: order.SourceCartID,
		Total:        order.Total,
		LineItems:    make([]orderLineResponse, 0, len(order.LineItems)),
		CreatedAt:    order.CreatedAt,
	}
	for _, line := range order.LineItems {
		payload.LineItems = append(payload.LineItems, orderLineResponse{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}
	return payload
}

// GetOrder returns one of the caller's orders.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), owner, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
