package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tableside/tableside-backend/api/controllers"
	"github.com/tableside/tableside-backend/api/middleware"
	"github.com/tableside/tableside-backend/internal/cart"
	"github.com/tableside/tableside-backend/internal/catalog"
	checkoutsvc "github.com/tableside/tableside-backend/internal/checkout"
	"github.com/tableside/tableside-backend/internal/orders"
	"github.com/tableside/tableside-backend/internal/users"
	"github.com/tableside/tableside-backend/pkg/config"
	"github.com/tableside/tableside-backend/pkg/db"
	"github.com/tableside/tableside-backend/pkg/logger"
	pkgredis "github.com/tableside/tableside-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         db.Pinger
	CachePinger      db.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	MetricsHandler   http.Handler

	Users    users.Service
	Catalog  catalog.Service
	Carts    cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.CachePinger))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Idempotency(deps.IdempotencyStore, logg)).
			Post("/users", controllers.RegisterUser(deps.Users, logg))
		r.Get("/users/{userId}", controllers.GetUser(deps.Users, logg))

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.ListRestaurants(deps.Catalog, logg))
			r.Post("/", controllers.CreateRestaurant(deps.Catalog, logg))
			r.Get("/{restaurantId}", controllers.GetRestaurant(deps.Catalog, logg))
			r.Get("/{restaurantId}/menu", controllers.ListMenu(deps.Catalog, logg))
			r.Post("/{restaurantId}/menu", controllers.CreateMenuItem(deps.Catalog, logg))
		})

		r.Get("/search", controllers.Search(deps.Catalog, logg))

		// Cart and order routes resolve the caller into an owner ref.
		// Idempotency records are scoped per owner, so the owner resolver
		// must run before the idempotency middleware builds its scope.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Owner(logg))
			r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))

			r.Route("/carts", func(r chi.Router) {
				r.Post("/", controllers.CreateCart(deps.Carts, logg))
				r.Get("/{cartId}", controllers.GetCart(deps.Carts, logg))
				r.Post("/{cartId}/items", controllers.AddCartItem(deps.Carts, logg))
				r.Put("/{cartId}/items/{menuItemId}", controllers.UpdateCartItem(deps.Carts, logg))
				r.Delete("/{cartId}/items/{menuItemId}", controllers.RemoveCartItem(deps.Carts, logg))
				r.Post("/{cartId}/checkout", controllers.Checkout(deps.Checkout, logg))
			})

			r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})
	})

	return r
}
