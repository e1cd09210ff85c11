package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/pkg/db"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	"github.com/tableside/tableside-backend/pkg/types"
)

// Repository is the gorm-backed cart store.
type Repository struct {
	client *db.Client
}

// NewRepository constructs the cart repository.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repository{client: client}, nil
}

func (r *Repository) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return loadCart(r.client.DB().WithContext(ctx), id)
}

func (r *Repository) FindOpenCartByOwner(ctx context.Context, owner types.OwnerRef) (*models.Cart, error) {
	query := r.client.DB().WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("status = ?", enums.CartStatusOpen)
	if owner.UserID != nil {
		query = query.Where("owner_user_id = ?", *owner.UserID)
	} else {
		query = query.Where("guest_token = ?", *owner.GuestToken)
	}

	var cart models.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) CreateCart(ctx context.Context, owner types.OwnerRef) (*models.Cart, error) {
	cart := &models.Cart{
		ID:          uuid.New(),
		OwnerUserID: owner.UserID,
		GuestToken:  owner.GuestToken,
		Status:      enums.CartStatusOpen,
		Version:     1,
		Items:       []models.CartItem{},
	}
	if err := r.client.DB().WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// CompareAndSwap applies mutate to the current row iff its version still
// equals expectedVersion. The guard is the version predicate on the UPDATE:
// if another writer committed first, RowsAffected is zero and the swap fails
// with ErrVersionConflict without touching the items.
func (r *Repository) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate MutationFn) (*models.Cart, error) {
	var swapped *models.Cart
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := loadCart(tx, id)
		if err != nil {
			return err
		}
		if cart.Version != expectedVersion {
			return ErrVersionConflict
		}

		if err := mutate(cart); err != nil {
			return err
		}

		nextVersion := expectedVersion + 1
		result := tx.Model(&models.Cart{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]any{
				"status":             cart.Status,
				"version":            nextVersion,
				"resulting_order_id": cart.ResultingOrderID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.CartID = id
			item.Position = i
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}

		cart.Version = nextVersion
		swapped = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swapped, nil
}

func (r *Repository) ListCartsByStatus(ctx context.Context, status enums.CartStatus) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.client.DB().WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func loadCart(tx *gorm.DB, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
