package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-cart/api/controllers/cart"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/session"
	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Params groups what the router needs from the composition root.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Session  session.Service
	Gatherer prometheus.Gatherer
	Ready    map[string]controllers.Pinger
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	var (
		syncer middleware.IdentitySyncer
		carts  cartcontrollers.Carts
	)
	if p.Session != nil {
		carts = p.Session
		syncer = middleware.SyncFunc(func(ctx context.Context, identity pkgAuth.Identity) {
			p.Session.Sync(ctx, identity)
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, syncer, logg))

		r.Route("/session", func(r chi.Router) {
			r.Post("/", controllers.SessionSync(p.Session, logg))
			r.Delete("/", controllers.SessionEnd(p.Session, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(carts, logg))
			r.Delete("/", cartcontrollers.CartClear(carts, logg))
			r.Post("/items", cartcontrollers.CartAddItem(carts, logg))
			r.Patch("/items/{itemID}", cartcontrollers.CartUpdateItem(carts, logg))
			r.Delete("/items/{itemID}", cartcontrollers.CartRemoveItem(carts, logg))
			r.Post("/refresh", cartcontrollers.CartRefresh(carts, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(carts, logg))
			r.Get("/lines/{productID}", cartcontrollers.CartLineByProduct(carts, logg))
		})
	})

	return r
}
