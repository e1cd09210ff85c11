package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/tableside-backend/internal/cart"
	"github.com/tableside/tableside-backend/internal/catalog"
	"github.com/tableside/tableside-backend/internal/users"
	"github.com/tableside/tableside-backend/pkg/config"
	"github.com/tableside/tableside-backend/pkg/db/models"
	"github.com/tableside/tableside-backend/pkg/enums"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/logger"
	"github.com/tableside/tableside-backend/pkg/pagination"
	"github.com/tableside/tableside-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubIdemStore struct{ data map[string]string }

func newStubIdemStore() *stubIdemStore {
	return &stubIdemStore{data: make(map[string]string)}
}

func (s *stubIdemStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", nil
}

func (s *stubIdemStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *stubIdemStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:%s:%s", scope, id)
}

type stubUsers struct{}

func (stubUsers) Register(context.Context, users.RegisterInput) (*models.User, error) {
	return &models.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}, nil
}

func (stubUsers) GetUser(context.Context, uuid.UUID) (*models.User, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type stubCatalog struct{}

func (stubCatalog) CreateRestaurant(context.Context, catalog.CreateRestaurantInput) (*catalog.RestaurantSummary, error) {
	return &catalog.RestaurantSummary{ID: uuid.New(), Name: "Stub"}, nil
}

func (stubCatalog) GetRestaurant(context.Context, uuid.UUID) (*catalog.RestaurantSummary, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
}

func (stubCatalog) ListRestaurants(context.Context, pagination.Params) ([]catalog.RestaurantSummary, string, error) {
	return nil, "", nil
}

func (stubCatalog) CreateMenuItem(context.Context, uuid.UUID, catalog.CreateMenuItemInput) (*catalog.MenuItemSummary, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
}

func (stubCatalog) ListMenu(context.Context, uuid.UUID) ([]catalog.MenuItemSummary, error) {
	return nil, nil
}

func (stubCatalog) GetMenuItem(context.Context, uuid.UUID) (*catalog.MenuItemSnapshot, error) {
	return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item does not exist")
}

func (stubCatalog) Search(context.Context, string) (*catalog.SearchResult, error) {
	return &catalog.SearchResult{}, nil
}

type stubCarts struct{}

func openCartView() *cart.CartView {
	return &cart.CartView{ID: uuid.New(), Status: enums.CartStatusOpen, Version: 1, Total: decimal.Zero}
}

func (stubCarts) CreateCart(context.Context, types.OwnerRef) (*cart.CartView, error) {
	return openCartView(), nil
}

func (stubCarts) GetCartDetails(context.Context, types.OwnerRef, uuid.UUID) (*cart.CartView, error) {
	return openCartView(), nil
}

func (stubCarts) AddItem(context.Context, types.OwnerRef, uuid.UUID, uuid.UUID, int) (*cart.CartView, error) {
	return openCartView(), nil
}

func (stubCarts) UpdateQuantity(context.Context, types.OwnerRef, uuid.UUID, uuid.UUID, int) (*cart.CartView, error) {
	return openCartView(), nil
}

func (stubCarts) RemoveItem(context.Context, types.OwnerRef, uuid.UUID, uuid.UUID) (*cart.CartView, error) {
	return openCartView(), nil
}

type stubCheckout struct{}

func (stubCheckout) Checkout(_ context.Context, _ types.OwnerRef, cartID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), SourceCartID: cartID, Total: decimal.RequireFromString("13.50")}, nil
}

func (stubCheckout) Refinalize(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubCheckout) RecoverLockedCarts(context.Context) error { return nil }

type stubOrders struct{}

func (stubOrders) GetOrder(context.Context, types.OwnerRef, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(Deps{
		Config:           cfg,
		Logger:           logg,
		DBPinger:         stubPinger{},
		CachePinger:      stubPinger{},
		IdempotencyStore: newStubIdemStore(),
		Users:            stubUsers{},
		Catalog:          stubCatalog{},
		Carts:            stubCarts{},
		Checkout:         stubCheckout{},
		Orders:           stubOrders{},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Tableside-Env") != "test" {
			t.Fatalf("%s: expected env header", path)
		}
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)

	url := fmt.Sprintf("/api/v1/carts/%s/checkout", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("X-Guest-Token", "tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", rec.Code)
	}
}

func TestCheckoutWithIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)

	url := fmt.Sprintf("/api/v1/carts/%s/checkout", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("X-Guest-Token", "tok")
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestIdempotencyRecordsAreOwnerScoped(t *testing.T) {
	router := newTestRouter(t)
	url := fmt.Sprintf("/api/v1/carts/%s/checkout", uuid.New())

	checkout := func(guestToken string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
		req.Header.Set("X-Guest-Token", guestToken)
		req.Header.Set("Idempotency-Key", "shared-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := checkout("owner-a")
	if first.Code != http.StatusCreated {
		t.Fatalf("owner-a checkout: expected 201, got %d", first.Code)
	}

	// A second owner reusing the same key and path must reach the handler,
	// not replay owner-a's stored order.
	second := checkout("owner-b")
	if second.Code != http.StatusCreated {
		t.Fatalf("owner-b checkout: expected 201, got %d", second.Code)
	}
	if first.Body.String() == second.Body.String() {
		t.Fatalf("owners must not share idempotency records: %s", second.Body.String())
	}

	// The same owner replaying does get the stored response.
	replay := checkout("owner-a")
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("replay for the same owner must return the stored body")
	}
}

func TestAnonymousCallerGetsGuestToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Guest-Token") == "" {
		t.Fatalf("anonymous caller must be issued a guest token")
	}
}

func TestInvalidUserHeaderRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/orders/%s", uuid.New()), nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed user id, got %d", rec.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
