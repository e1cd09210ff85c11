package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/pkg/db"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/types"
)

// DefaultRetryLimit bounds how many compare-and-swap attempts a single
// mutation request may spend before giving up.
const DefaultRetryLimit = 3

type catalogReader interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*catalog.MenuItemSnapshot, error)
}

// Service exposes cart lifecycle and line mutations.
type Service interface {
	CreateCart(ctx context.Context, owner types.OwnerRef) (*CartView, error)
	GetCartDetails(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID, quantity int) (*CartView, error)
	UpdateQuantity(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID) (*CartView, error)
}

type service struct {
	store      Store
	catalog    catalogReader
	retryLimit int
}

// NewService constructs the cart mutation service. retryLimit <= 0 falls
// back to DefaultRetryLimit.
func NewService(store Store, catalogReader catalogReader, retryLimit int) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalogReader == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	return &service{store: store, catalog: catalogReader, retryLimit: retryLimit}, nil
}

func (s *service) CreateCart(ctx context.Context, owner types.OwnerRef) (*CartView, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity is required")
	}

	existing, err := s.store.FindOpenCartByOwner(ctx, owner)
	if err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateOwnerCart, "owner already has an open cart").
			WithDetails(map[string]string{"cart_id": existing.ID.String()})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open cart")
	}

	created, err := s.store.CreateCart(ctx, owner)
	if err != nil {
		// Lost the race against a concurrent create: the partial unique
		// index on open carts per owner fired.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateOwnerCart, err, "owner already has an open cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return NewCartView(created), nil
}

func (s *service) GetCartDetails(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*CartView, error) {
	cart, err := s.loadOwnedCart(ctx, owner, cartID)
	if err != nil {
		return nil, err
	}
	return NewCartView(cart), nil
}

func (s *service) AddItem(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]int{"quantity": quantity})
	}

	snapshot, err := s.catalog.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if !snapshot.Available {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item is unavailable").
			WithDetails(map[string]string{"menu_item_id": menuItemID.String()})
	}

	if cartID == uuid.Nil {
		resolved, err := s.resolveActiveCart(ctx, owner)
		if err != nil {
			return nil, err
		}
		cartID = resolved
	}

	return s.mutate(ctx, owner, cartID, func(cart *models.Cart) error {
		if line := cart.FindItem(menuItemID); line != nil {
			// Re-adding merges quantities and keeps the original
			// price snapshot.
			line.Quantity += quantity
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			MenuItemID: menuItemID,
			Quantity:   quantity,
			UnitPrice:  snapshot.Price,
		})
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity cannot be negative").
			WithDetails(map[string]int{"quantity": quantity})
	}

	return s.mutate(ctx, owner, cartID, func(cart *models.Cart) error {
		idx := -1
		for i := range cart.Items {
			if cart.Items[i].MenuItemID == menuItemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeLineNotFound, "menu item is not in the cart").
				WithDetails(map[string]string{"menu_item_id": menuItemID.String()})
		}
		if quantity == 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
			return nil
		}
		cart.Items[idx].Quantity = quantity
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, owner types.OwnerRef, cartID, menuItemID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, owner, cartID, func(cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].MenuItemID == menuItemID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
		return pkgerrors.New(pkgerrors.CodeLineNotFound, "menu item is not in the cart").
			WithDetails(map[string]string{"menu_item_id": menuItemID.String()})
	})
}

// mutate runs one mutation through the compare-and-swap loop. Each attempt
// re-reads the cart so the mutation applies to the latest committed state.
func (s *service) mutate(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID, fn MutationFn) (*CartView, error) {
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "cart mutation deadline exceeded")
		}

		cart, err := s.loadOwnedCart(ctx, owner, cartID)
		if err != nil {
			return nil, err
		}
		if cart.Status != enums.CartStatusOpen {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotOpen, "cart is not open").
				WithDetails(map[string]string{"status": cart.Status.String()})
		}

		swapped, err := s.store.CompareAndSwap(ctx, cartID, cart.Version, fn)
		if err == nil {
			return NewCartView(swapped), nil
		}
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "cart mutation deadline exceeded")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: swap cart")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "cart was modified concurrently").
		WithDetails(map[string]string{"cart_id": cartID.String()})
}

// loadOwnedCart fetches the cart and enforces ownership. A cart belonging to
// someone else reads as absent so ids do not leak across owners.
func (s *service) loadOwnedCart(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity is required")
	}
	cart, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	if !cart.Owner().Equals(owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return cart, nil
}

func (s *service) resolveActiveCart(ctx context.Context, owner types.OwnerRef) (uuid.UUID, error) {
	existing, err := s.store.FindOpenCartByOwner(ctx, owner)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open cart")
	}
	created, err := s.store.CreateCart(ctx, owner)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// Another request created the cart first; use it.
			if existing, findErr := s.store.FindOpenCartByOwner(ctx, owner); findErr == nil {
				return existing.ID, nil
			}
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created.ID, nil
}
