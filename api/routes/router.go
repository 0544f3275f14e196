package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servistore/servistore-backend/api/controllers"
	"github.com/servistore/servistore-backend/api/middleware"
	"github.com/servistore/servistore-backend/internal/cart"
	"github.com/servistore/servistore-backend/internal/catalog"
	"github.com/servistore/servistore-backend/internal/customers"
	"github.com/servistore/servistore-backend/internal/orders"
	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/logger"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Health    map[string]controllers.Pinger
	Registry  *prometheus.Registry
	Catalog   catalog.Service
	Carts     cart.Service
	Orders    orders.Service
	Customers customers.Service
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public storefront. Carts are anonymous: the unguessable cart id
		// is the only credential.
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.ListApplications(deps.Catalog, logg))
			r.Get("/{applicationId}", controllers.GetApplication(deps.Catalog, logg))
			r.Get("/{applicationId}/services", controllers.ListServices(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireStaff(logg))
				r.Post("/", controllers.CreateApplication(deps.Catalog, logg))
				r.Patch("/{applicationId}", controllers.UpdateApplication(deps.Catalog, logg))
				r.Delete("/{applicationId}", controllers.DeleteApplication(deps.Catalog, logg))
				r.Post("/{applicationId}/services", controllers.CreateService(deps.Catalog, logg))
				r.Put("/{applicationId}/top-service", controllers.SetTopService(deps.Catalog, logg))
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/{serviceId}", controllers.GetService(deps.Catalog, logg))
			r.Get("/{serviceId}/comments", controllers.ListComments(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.Post("/{serviceId}/comments", controllers.CreateComment(deps.Catalog, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireStaff(logg))
				r.Patch("/{serviceId}", controllers.UpdateService(deps.Catalog, logg))
				r.Delete("/{serviceId}", controllers.DeleteService(deps.Catalog, logg))
			})
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", controllers.ListDiscounts(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireStaff(logg))
				r.Post("/", controllers.CreateDiscount(deps.Catalog, logg))
				r.Patch("/{discountId}", controllers.UpdateDiscount(deps.Catalog, logg))
				r.Delete("/{discountId}", controllers.DeleteDiscount(deps.Catalog, logg))
			})
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CreateCart(deps.Carts, logg))
			r.Get("/{cartId}", controllers.GetCart(deps.Carts, logg))
			r.Delete("/{cartId}", controllers.DeleteCart(deps.Carts, logg))
			r.Post("/{cartId}/items", controllers.AddCartItem(deps.Carts, logg))
			r.Patch("/{cartId}/items/{itemId}", controllers.UpdateCartItem(deps.Carts, logg))
			r.Delete("/{cartId}/items/{itemId}", controllers.DeleteCartItem(deps.Carts, logg))
		})

		// The gateway redirects the customer's browser here without our
		// auth token.
		r.Get("/orders/{orderId}/payment/callback", controllers.PaymentCallback(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(deps.Orders, logg))
				r.Get("/", controllers.ListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderId}/pay", controllers.PayOrder(deps.Orders, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/me", controllers.Me(deps.Customers, logg))
				r.Patch("/me", controllers.UpdateMe(deps.Customers, logg))
				r.Post("/verify-phone", controllers.VerifyPhone(deps.Customers, logg))
			})
		})
	})

	return r
}
