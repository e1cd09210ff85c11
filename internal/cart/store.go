package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	"github.com/tableside/tableside-backend/pkg/types"
)

// ErrVersionConflict signals that a compare-and-swap lost the race: the cart
// version moved between the caller's read and its write. Callers retry by
// re-reading and re-applying their mutation.
var ErrVersionConflict = errors.New("cart version conflict")

// MutationFn transforms a freshly loaded cart inside the swap transaction.
// It must be pure apart from mutating the passed cart: the store may invoke
// it once per attempt. Returning an error aborts the swap without a write.
type MutationFn func(cart *models.Cart) error

// Store is the persistence contract for carts. All writes to an existing
// cart go through CompareAndSwap so that concurrent mutations serialize on
// the version column.
type Store interface {
	// GetCart loads a cart with its items ordered by position, or
	// gorm.ErrRecordNotFound.
	GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)

	// FindOpenCartByOwner returns the owner's open cart, or
	// gorm.ErrRecordNotFound when none exists.
	FindOpenCartByOwner(ctx context.Context, owner types.OwnerRef) (*models.Cart, error)

	// CreateCart inserts a fresh open cart at version 1 for the owner.
	// The open-cart-per-owner unique index surfaces races as a unique
	// violation.
	CreateCart(ctx context.Context, owner types.OwnerRef) (*models.Cart, error)

	// CompareAndSwap reloads the cart in a transaction, fails with
	// ErrVersionConflict if its version no longer equals expectedVersion,
	// otherwise applies mutate, bumps the version, and persists the result
	// including the full item set.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate MutationFn) (*models.Cart, error)

	// ListCartsByStatus returns every cart in the given status, items not
	// loaded. Used by the startup sweep that finalizes carts stranded in
	// locked by a crash.
	ListCartsByStatus(ctx context.Context, status enums.CartStatus) ([]models.Cart, error)
}
