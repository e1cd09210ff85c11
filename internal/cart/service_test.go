package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/types"
)

type stubStore struct {
	carts     map[uuid.UUID]*models.Cart
	conflicts int
}

func newStubStore() *stubStore {
	return &stubStore{carts: make(map[uuid.UUID]*models.Cart)}
}

func (s *stubStore) seed(cart *models.Cart) *models.Cart {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if cart.Version == 0 {
		cart.Version = 1
	}
	if cart.Status == "" {
		cart.Status = enums.CartStatusOpen
	}
	s.carts[cart.ID] = cart
	return cart
}

func (s *stubStore) GetCart(_ context.Context, id uuid.UUID) (*models.Cart, error) {
	cart, ok := s.carts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneCart(cart), nil
}

func (s *stubStore) FindOpenCartByOwner(_ context.Context, owner types.OwnerRef) (*models.Cart, error) {
	for _, cart := range s.carts {
		if cart.Status == enums.CartStatusOpen && cart.Owner().Equals(owner) {
			return cloneCart(cart), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) CreateCart(_ context.Context, owner types.OwnerRef) (*models.Cart, error) {
	cart := &models.Cart{
		ID:          uuid.New(),
		OwnerUserID: owner.UserID,
		GuestToken:  owner.GuestToken,
		Status:      enums.CartStatusOpen,
		Version:     1,
	}
	s.carts[cart.ID] = cart
	return cloneCart(cart), nil
}

func (s *stubStore) CompareAndSwap(_ context.Context, id uuid.UUID, expectedVersion int64, mutate MutationFn) (*models.Cart, error) {
	if s.conflicts > 0 {
		s.conflicts--
		return nil, ErrVersionConflict
	}
	cart, ok := s.carts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if cart.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	next := cloneCart(cart)
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Version = expectedVersion + 1
	s.carts[id] = next
	return cloneCart(next), nil
}

func (s *stubStore) ListCartsByStatus(_ context.Context, status enums.CartStatus) ([]models.Cart, error) {
	var out []models.Cart
	for _, cart := range s.carts {
		if cart.Status == status {
			out = append(out, *cloneCart(cart))
		}
	}
	return out, nil
}

func cloneCart(cart *models.Cart) *models.Cart {
	copied := *cart
	copied.Items = make([]models.CartItem, len(cart.Items))
	copy(copied.Items, cart.Items)
	return &copied
}

type stubCatalog struct {
	snapshots map[uuid.UUID]*catalog.MenuItemSnapshot
}

func (s *stubCatalog) GetMenuItem(_ context.Context, id uuid.UUID) (*catalog.MenuItemSnapshot, error) {
	snapshot, ok := s.snapshots[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item does not exist")
	}
	return snapshot, nil
}

func newTestService(t *testing.T, store Store, items map[uuid.UUID]*catalog.MenuItemSnapshot) Service {
	t.Helper()
	svc, err := NewService(store, &stubCatalog{snapshots: items}, 3)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateCartRejectsSecondOpenCart(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.CreateCart(ctx, owner); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateCart(ctx, owner)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDuplicateOwnerCart) {
		t.Fatalf("expected duplicate owner cart, got %v", err)
	}
}

func TestAddItemSnapshotsPriceAndMerges(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	snapshot := &catalog.MenuItemSnapshot{MenuItemID: itemID, Price: price("4.50"), Available: true}
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{itemID: snapshot})
	ctx := context.Background()

	created, err := svc.CreateCart(ctx, owner)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	view, err := svc.AddItem(ctx, owner, created.ID, itemID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines: %+v", view.Lines)
	}
	if !view.Lines[0].UnitPrice.Equal(price("4.50")) {
		t.Fatalf("expected snapshot price 4.50, got %s", view.Lines[0].UnitPrice)
	}

	// A later menu price change must not affect the existing line.
	snapshot.Price = price("9.99")
	view, err = svc.AddItem(ctx, owner, created.ID, itemID, 1)
	if err != nil {
		t.Fatalf("merge add: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %+v", view.Lines)
	}
	if !view.Lines[0].UnitPrice.Equal(price("4.50")) {
		t.Fatalf("merge must keep the original snapshot, got %s", view.Lines[0].UnitPrice)
	}
}

func TestAddItemValidation(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	available := uuid.New()
	paused := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		available: {MenuItemID: available, Price: price("2.00"), Available: true},
		paused:    {MenuItemID: paused, Price: price("2.00"), Available: false},
	})
	ctx := context.Background()

	created, err := svc.CreateCart(ctx, owner)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	if _, err := svc.AddItem(ctx, owner, created.ID, available, 0); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, created.ID, paused, 1); !pkgerrors.IsCode(err, pkgerrors.CodeItemUnavailable) {
		t.Fatalf("expected item unavailable, got %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, created.ID, uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeItemUnavailable) {
		t.Fatalf("expected item unavailable for unknown item, got %v", err)
	}
}

func TestAddItemWithoutCartCreatesOne(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("1.00"), Available: true},
	})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, owner, uuid.Nil, itemID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if view.Status != enums.CartStatusOpen || len(view.Lines) != 1 {
		t.Fatalf("expected fresh open cart with one line, got %+v", view)
	}
}

func TestUpdateQuantitySemantics(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("3.00"), Available: true},
	})
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	if _, err := svc.AddItem(ctx, owner, created.ID, itemID, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := svc.UpdateQuantity(ctx, owner, created.ID, itemID, -1); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, owner, created.ID, uuid.New(), 5); !pkgerrors.IsCode(err, pkgerrors.CodeLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}

	view, err := svc.UpdateQuantity(ctx, owner, created.ID, itemID, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Lines[0].Quantity)
	}

	// Quantity zero removes the line.
	view, err = svc.UpdateQuantity(ctx, owner, created.ID, itemID, 0)
	if err != nil {
		t.Fatalf("zero update: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Lines)
	}
}

func TestRemoveItemMissingLine(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	if _, err := svc.RemoveItem(ctx, owner, created.ID, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}
}

func TestMutationsRequireOpenCart(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("1.00"), Available: true},
	})
	ctx := context.Background()

	locked := store.seed(&models.Cart{GuestToken: owner.GuestToken, Status: enums.CartStatusLocked})
	if _, err := svc.AddItem(ctx, owner, locked.ID, itemID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeCartNotOpen) {
		t.Fatalf("expected cart not open, got %v", err)
	}

	done := store.seed(&models.Cart{GuestToken: owner.GuestToken, Status: enums.CartStatusCheckedOut})
	if _, err := svc.UpdateQuantity(ctx, owner, done.ID, itemID, 2); !pkgerrors.IsCode(err, pkgerrors.CodeCartNotOpen) {
		t.Fatalf("expected cart not open, got %v", err)
	}
}

func TestCrossOwnerAccessReadsAsAbsent(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	mine, err := svc.CreateCart(ctx, types.GuestOwner("mine"))
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	_, err = svc.GetCartDetails(ctx, types.GuestOwner("theirs"), mine.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestMutationRetriesThenSucceeds(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("1.00"), Available: true},
	})
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	store.conflicts = 2

	view, err := svc.AddItem(ctx, owner, created.ID, itemID, 1)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected one line, got %+v", view.Lines)
	}
}

func TestMutationRetryExhaustion(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("1.00"), Available: true},
	})
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	store.conflicts = 3

	_, err := svc.AddItem(ctx, owner, created.ID, itemID, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	typed := pkgerrors.As(err)
	if !pkgerrors.MetadataFor(typed.Code()).Retryable {
		t.Fatalf("concurrent modification must be retryable")
	}
}

func TestMutationHonorsContextCancellation(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("1.00"), Available: true},
	})

	created, _ := svc.CreateCart(context.Background(), owner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.UpdateQuantity(ctx, owner, created.ID, itemID, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestTotalsRecomputeAcrossMutations(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	burger := uuid.New()
	soda := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		burger: {MenuItemID: burger, Price: price("5.25"), Available: true},
		soda:   {MenuItemID: soda, Price: price("3.00"), Available: true},
	})
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	if _, err := svc.AddItem(ctx, owner, created.ID, burger, 2); err != nil {
		t.Fatalf("add burger: %v", err)
	}
	view, err := svc.AddItem(ctx, owner, created.ID, soda, 1)
	if err != nil {
		t.Fatalf("add soda: %v", err)
	}
	if !view.Total.Equal(price("13.50")) {
		t.Fatalf("expected total 13.50, got %s", view.Total)
	}

	view, err = svc.UpdateQuantity(ctx, owner, created.ID, burger, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !view.Total.Equal(price("8.25")) {
		t.Fatalf("expected total 8.25, got %s", view.Total)
	}

	view, err = svc.RemoveItem(ctx, owner, created.ID, soda)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !view.Total.Equal(price("5.25")) {
		t.Fatalf("expected total 5.25, got %s", view.Total)
	}
}

func TestLineTotalsRoundHalfUpPerLine(t *testing.T) {
	store := newStubStore()
	owner := types.GuestOwner("tok")
	itemID := uuid.New()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.MenuItemSnapshot{
		itemID: {MenuItemID: itemID, Price: price("0.665"), Available: true},
	})
	ctx := context.Background()

	created, _ := svc.CreateCart(ctx, owner)
	view, err := svc.AddItem(ctx, owner, created.ID, itemID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !view.Lines[0].LineTotal.Equal(price("0.67")) {
		t.Fatalf("expected 0.665 to round up to 0.67, got %s", view.Lines[0].LineTotal)
	}
}
