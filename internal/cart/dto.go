package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	"github.com/tableside/tableside-backend/pkg/money"
)

// LineView is the read projection of one cart line.
type LineView struct {
	MenuItemID uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

// CartView is the read projection returned to callers. Total is computed on
// read from the line snapshots and never persisted.
type CartView struct {
	ID               uuid.UUID
	Status           enums.CartStatus
	Version          int64
	Lines            []LineView
	Total            decimal.Decimal
	ResultingOrderID *uuid.UUID
}

// NewCartView projects a cart aggregate, rounding each line half up before
// summing.
func NewCartView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:               cart.ID,
		Status:           cart.Status,
		Version:          cart.Version,
		Lines:            make([]LineView, 0, len(cart.Items)),
		Total:            decimal.Zero,
		ResultingOrderID: cart.ResultingOrderID,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		lineTotal := money.LineTotal(item.Quantity, item.UnitPrice)
		view.Lines = append(view.Lines, LineView{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}
	return view
}
