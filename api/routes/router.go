package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmoraes-dev/exportdesk-backend/api/controllers"
	"github.com/lmoraes-dev/exportdesk-backend/api/middleware"
	"github.com/lmoraes-dev/exportdesk-backend/internal/cart"
	"github.com/lmoraes-dev/exportdesk-backend/internal/catalog"
	"github.com/lmoraes-dev/exportdesk-backend/internal/quotes"
	"github.com/lmoraes-dev/exportdesk-backend/internal/salespeople"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/config"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	quoteService quotes.Service,
	cartService cart.Service,
	companies *catalog.CompanyRepository,
	salespeopleRepo *salespeople.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.ListCart(cartService, logg))
			r.Post("/", controllers.AddCartLine(cartService, logg))
			r.Put("/{productID}", controllers.UpdateCartLine(cartService, logg))
			r.Delete("/{productID}", controllers.RemoveCartLine(cartService, logg))
		})

		r.With(middleware.RequireRole(string(enums.ActorRoleBuyer), logg)).
			Post("/checkout", controllers.Checkout(quoteService, companies, salespeopleRepo, logg))

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", controllers.ListQuotes(quoteService, logg))
			r.With(middleware.RequireRole(string(enums.ActorRoleSalesperson), logg)).
				Post("/", controllers.CreateQuote(quoteService, logg))
			r.Get("/{id}", controllers.GetQuote(quoteService, logg))
			r.Put("/{id}", controllers.UpdateQuote(quoteService, logg))
			r.Delete("/{id}", controllers.DeleteQuote(quoteService, logg))
		})
	})

	return r
}
