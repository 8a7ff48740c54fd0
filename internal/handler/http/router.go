package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamsonukr/storefront/pkg/health"
	"github.com/iamsonukr/storefront/pkg/middleware"
)

// RouterConfig carries the wiring a router needs beyond the handlers.
type RouterConfig struct {
	Logger          *slog.Logger
	TokenResolver   middleware.TokenResolver
	CORS            middleware.CORSConfig
	Health          *health.Handler
	PprofCIDRs      []string
	CatalogCacheTTL time.Duration
}

// NewRouter assembles the storefront HTTP routes with the standard
// middleware chain.
func NewRouter(products *ProductHandler, reviews *ReviewHandler, carts *CartHandler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.CORS(cfg.CORS))

	// Liveness, readiness, and metrics bypass identity resolution.
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	cacheSeconds := int(cfg.CatalogCacheTTL.Seconds())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.TokenResolver))
		r.Use(middleware.RequestLogger(cfg.Logger))

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.CacheControl(cacheSeconds)).Get("/", products.ListProducts)
			r.Post("/", products.CreateProduct)
			r.With(middleware.CacheControl(cacheSeconds)).Get("/{idOrSlug}", products.GetProduct)
			r.With(middleware.CacheControl(cacheSeconds)).Get("/{id}/related", products.ListRelated)

			r.Get("/{id}/reviews", reviews.ListReviews)
			r.Get("/{id}/reviews/summary", reviews.GetSummary)
			r.With(middleware.RequireUser).Post("/{id}/reviews", reviews.SubmitReview)
		})

		r.With(middleware.CacheControl(cacheSeconds)).Get("/categories", products.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{productID}", carts.UpdateItemQuantity)
			r.Delete("/items/{productID}", carts.RemoveItem)
			r.With(middleware.RequireUser).Post("/merge", carts.MergeCart)
		})
	})

	return r
}
