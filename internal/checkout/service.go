package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/internal/cart"
	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/logger"
	"github.com/tableside/tableside-backend/pkg/metrics"
	"github.com/tableside/tableside-backend/pkg/money"
	"github.com/tableside/tableside-backend/pkg/types"
)

const (
	outcomeCheckedOut             = "checked_out"
	outcomeEmptyCart              = "empty_cart"
	outcomeItemUnavailable        = "item_unavailable"
	outcomeConcurrentModification = "concurrent_modification"
	outcomeCartNotOpen            = "cart_not_open"
	outcomeError                  = "error"
)

type catalogReader interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*catalog.MenuItemSnapshot, error)
}

type orderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindBySourceCart(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
}

// Service drives the cart state machine open -> locked -> checked_out and
// emits the resulting order.
type Service interface {
	Checkout(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*models.Order, error)
	Refinalize(ctx context.Context, cartID, orderID uuid.UUID) error
	RecoverLockedCarts(ctx context.Context) error
}

type service struct {
	carts      cart.Store
	catalog    catalogReader
	orders     orderStore
	log        *logger.Logger
	metrics    *metrics.CheckoutMetrics
	retryLimit int
}

// NewService constructs the checkout engine. retryLimit <= 0 falls back to
// the cart service default.
func NewService(carts cart.Store, catalogReader catalogReader, orders orderStore, log *logger.Logger, checkoutMetrics *metrics.CheckoutMetrics, retryLimit int) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalogReader == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retryLimit <= 0 {
		retryLimit = cart.DefaultRetryLimit
	}
	return &service{
		carts:      carts,
		catalog:    catalogReader,
		orders:     orders,
		log:        log,
		metrics:    checkoutMetrics,
		retryLimit: retryLimit,
	}, nil
}

// Checkout converts the owner's open cart into an order. The cart is locked
// first so concurrent mutations lose cleanly, every line price is re-resolved
// from the catalog, and the cart only reaches checked_out after the order row
// exists.
func (s *service) Checkout(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*models.Order, error) {
	start := time.Now()
	order, err := s.checkout(ctx, owner, cartID)
	s.observe(err, time.Since(start))
	return order, err
}

func (s *service) checkout(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*models.Order, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity is required")
	}
	ctx = s.log.WithCartID(ctx, cartID.String())
	ctx = s.log.WithOwner(ctx, owner.Key())

	locked, err := s.lock(ctx, owner, cartID)
	if err != nil {
		return nil, err
	}

	lines, total, err := s.priceLines(ctx, locked)
	if err != nil {
		// The cart must go back to open before the failure surfaces.
		// A failed abort strands the cart in locked, so it is reported
		// alongside the pricing failure.
		if abortErr := s.abort(ctx, locked); abortErr != nil {
			s.log.Error(ctx, "checkout abort failed, cart stuck in locked", abortErr)
			err = multierr.Append(err, abortErr)
		}
		return nil, err
	}

	order := &models.Order{
		SourceCartID: locked.ID,
		OwnerUserID:  locked.OwnerUserID,
		GuestToken:   locked.GuestToken,
		Total:        total,
		LineItems:    lines,
	}
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if abortErr := s.abort(ctx, locked); abortErr != nil {
			s.log.Error(ctx, "checkout abort failed, cart stuck in locked", abortErr)
			err = multierr.Append(err, abortErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append order")
	}

	if err := s.finalize(ctx, locked.ID, locked.Version, created.ID); err != nil {
		// The order exists but the cart is still locked. Surface the
		// order id so Refinalize can reconcile.
		s.log.Error(ctx, "checkout finalize failed, order exists", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize checkout").
			WithDetails(map[string]string{"order_id": created.ID.String(), "cart_id": locked.ID.String()})
	}

	s.log.Info(ctx, "checkout completed")
	return created, nil
}

// Refinalize completes the last step of a checkout that crashed after its
// order was written: a locked cart with an existing order transitions to
// checked_out. Safe to call repeatedly.
func (s *service) Refinalize(ctx context.Context, cartID, orderID uuid.UUID) error {
	current, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}

	switch current.Status {
	case enums.CartStatusCheckedOut:
		if current.ResultingOrderID != nil && *current.ResultingOrderID == orderID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "cart finalized against a different order")
	case enums.CartStatusLocked:
		return s.finalize(ctx, cartID, current.Version, orderID)
	default:
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is not awaiting finalization").
			WithDetails(map[string]string{"status": current.Status.String()})
	}
}

// RecoverLockedCarts sweeps carts stranded in locked by a crash and
// refinalizes the ones whose order was already written. Locked carts with
// no order are left alone: another instance may be mid-checkout, and its
// own abort or finalize will resolve them. Runs at startup before the
// server accepts traffic.
func (s *service) RecoverLockedCarts(ctx context.Context) error {
	stranded, err := s.carts.ListCartsByStatus(ctx, enums.CartStatusLocked)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list locked carts")
	}

	for i := range stranded {
		c := &stranded[i]
		cctx := s.log.WithCartID(ctx, c.ID.String())

		order, err := s.orders.FindBySourceCart(cctx, c.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warn(cctx, "locked cart has no order, leaving for its checkout to resolve")
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order for locked cart")
		}

		if err := s.Refinalize(cctx, c.ID, order.ID); err != nil {
			s.log.Error(cctx, "failed to refinalize locked cart", err)
			continue
		}
		s.log.Info(cctx, "refinalized locked cart")
	}
	return nil
}

// lock transitions the cart from open to locked under the usual retry
// budget. Owner and status checks run inside each attempt against the
// freshly read row.
func (s *service) lock(ctx context.Context, owner types.OwnerRef, cartID uuid.UUID) (*models.Cart, error) {
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "checkout deadline exceeded")
		}

		current, err := s.carts.GetCart(ctx, cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
		}
		if !current.Owner().Equals(owner) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if current.Status != enums.CartStatusOpen {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotOpen, "cart is not open").
				WithDetails(map[string]string{"status": current.Status.String()})
		}
		if len(current.Items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no items")
		}

		locked, err := s.carts.CompareAndSwap(ctx, cartID, current.Version, func(c *models.Cart) error {
			c.Status = enums.CartStatusLocked
			return nil
		})
		if err == nil {
			return locked, nil
		}
		if errors.Is(err, cart.ErrVersionConflict) {
			if s.metrics != nil {
				s.metrics.IncLockRetry()
			}
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "checkout deadline exceeded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock cart")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "cart was modified concurrently").
		WithDetails(map[string]string{"cart_id": cartID.String()})
}

// priceLines re-resolves every line against the live catalog and computes
// the order total, rounding each line half up before summing.
func (s *service) priceLines(ctx context.Context, locked *models.Cart) ([]models.OrderLineItem, decimal.Decimal, error) {
	lines := make([]models.OrderLineItem, 0, len(locked.Items))
	total := decimal.Zero
	var unavailable []string

	for i := range locked.Items {
		item := &locked.Items[i]
		snapshot, err := s.catalog.GetMenuItem(ctx, item.MenuItemID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeItemUnavailable) {
				unavailable = append(unavailable, item.MenuItemID.String())
				continue
			}
			return nil, decimal.Zero, err
		}
		if !snapshot.Available {
			unavailable = append(unavailable, item.MenuItemID.String())
			continue
		}
		lineTotal := money.LineTotal(item.Quantity, snapshot.Price)
		total = total.Add(lineTotal)
		lines = append(lines, models.OrderLineItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  snapshot.Price,
		})
	}

	if len(unavailable) > 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeItemUnavailable, "cart contains unavailable items").
			WithDetails(map[string]any{"menu_item_ids": unavailable})
	}
	return lines, total, nil
}

// abort rolls a locked cart back to open. Only this checkout holds the
// locked version, so a single swap suffices; a conflict means an operator
// intervened and is surfaced as-is.
func (s *service) abort(ctx context.Context, locked *models.Cart) error {
	_, err := s.carts.CompareAndSwap(ctx, locked.ID, locked.Version, func(c *models.Cart) error {
		c.Status = enums.CartStatusOpen
		return nil
	})
	if err != nil {
		return fmt.Errorf("reopen cart %s: %w", locked.ID, err)
	}
	return nil
}

// finalize moves a locked cart to checked_out and records the order id.
// Idempotent when the cart already finalized against the same order.
func (s *service) finalize(ctx context.Context, cartID uuid.UUID, lockedVersion int64, orderID uuid.UUID) error {
	_, err := s.carts.CompareAndSwap(ctx, cartID, lockedVersion, func(c *models.Cart) error {
		c.Status = enums.CartStatusCheckedOut
		c.ResultingOrderID = &orderID
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, cart.ErrVersionConflict) {
		current, loadErr := s.carts.GetCart(ctx, cartID)
		if loadErr == nil && current.Status == enums.CartStatusCheckedOut &&
			current.ResultingOrderID != nil && *current.ResultingOrderID == orderID {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "cart moved during finalize")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: finalize cart")
}

func (s *service) observe(err error, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := outcomeCheckedOut
	if err != nil {
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart):
			outcome = outcomeEmptyCart
		case pkgerrors.IsCode(err, pkgerrors.CodeItemUnavailable):
			outcome = outcomeItemUnavailable
		case pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification):
			outcome = outcomeConcurrentModification
		case pkgerrors.IsCode(err, pkgerrors.CodeCartNotOpen):
			outcome = outcomeCartNotOpen
		default:
			outcome = outcomeError
		}
	}
	s.metrics.ObserveCheckout(outcome, duration)
}
