package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageturn/bookmarket-backend/api/controllers"
	"github.com/pageturn/bookmarket-backend/api/middleware"
	authsvc "github.com/pageturn/bookmarket-backend/internal/auth"
	booksvc "github.com/pageturn/bookmarket-backend/internal/books"
	cartsvc "github.com/pageturn/bookmarket-backend/internal/cart"
	ordersvc "github.com/pageturn/bookmarket-backend/internal/orders"
	"github.com/pageturn/bookmarket-backend/pkg/auth/session"
	"github.com/pageturn/bookmarket-backend/pkg/config"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	"github.com/pageturn/bookmarket-backend/pkg/logger"
	"github.com/pageturn/bookmarket-backend/pkg/metrics"
	"github.com/pageturn/bookmarket-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	DB      controllers.Pinger
	Session session.AccessSessionChecker

	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	BooksService    *booksvc.Service
	CartService     *cartsvc.Service
	OrdersService   *ordersvc.Service

	Metrics         *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(p.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
				Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
				Post("/login", controllers.AuthLogin(p.AuthService, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
				r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))
				r.Get("/profile", controllers.AuthProfile(p.AuthService, logg))
			})
		})

		// public catalog
		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.BooksList(p.BooksService, logg))
			r.Get("/featured", controllers.BooksFeatured(p.BooksService, logg))
			r.Get("/search", controllers.BooksSearch(p.BooksService, logg))
			r.Post("/batch", controllers.BooksBatch(p.BooksService, logg))
			r.Get("/{bookId}", controllers.BooksGet(p.BooksService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
				r.Get("/user/listings", controllers.MyListings(p.BooksService, logg))
				r.Post("/", controllers.BookCreate(p.BooksService, logg))
				r.Put("/{bookId}", controllers.BookUpdate(p.BooksService, logg))
				r.Delete("/{bookId}", controllers.BookDelete(p.BooksService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Session, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(p.CartService, logg))
				r.Post("/add", controllers.CartAddItem(p.CartService, logg))
				r.Put("/items/{itemId}", controllers.CartUpdateItem(p.CartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.CartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.Checkout(p.OrdersService, logg))
				r.Get("/", controllers.OrdersPurchases(p.OrdersService, logg))
				r.Get("/purchases", controllers.OrdersPurchases(p.OrdersService, logg))
				r.Get("/sales", controllers.OrdersSales(p.OrdersService, logg))
				r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
					Get("/all", controllers.AdminOrdersList(p.OrdersService, logg))
				r.Delete("/{orderId}", controllers.OrderCancel(p.OrdersService, logg))
			})
		})
	})

	return r
}
