package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/pkg/db"
	"github.com/tableside/tableside-backend/pkg/db/models"
)

// Repository is the append-only order store. Orders are inserted once and
// never updated or deleted.
type Repository struct {
	client *db.Client
}

// NewRepository constructs the order repository.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repository{client: client}, nil
}

// Create inserts the order with its line items in one transaction. The
// unique index on source_cart_id guarantees at most one order per cart.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.LineItems {
		item := &order.LineItems[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		item.Position = i
	}

	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its line items ordered by position.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.client.DB().WithContext(ctx).
		Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindBySourceCart loads the order created from the given cart, if any.
func (r *Repository) FindBySourceCart(ctx context.Context, cartID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.client.DB().WithContext(ctx).
		Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		First(&order, "source_cart_id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
