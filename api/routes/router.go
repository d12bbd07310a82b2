package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shokujin-wiki/shokujin-api/api/controllers"
	"github.com/shokujin-wiki/shokujin-api/api/middleware"
	"github.com/shokujin-wiki/shokujin-api/internal/articles"
	"github.com/shokujin-wiki/shokujin-api/internal/auth"
	"github.com/shokujin-wiki/shokujin-api/internal/eats"
	"github.com/shokujin-wiki/shokujin-api/internal/media"
	"github.com/shokujin-wiki/shokujin-api/internal/options"
	products "github.com/shokujin-wiki/shokujin-api/internal/products"
	"github.com/shokujin-wiki/shokujin-api/internal/reviews"
	"github.com/shokujin-wiki/shokujin-api/internal/users"
	"github.com/shokujin-wiki/shokujin-api/pkg/auth/session"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
	"github.com/shokujin-wiki/shokujin-api/pkg/metrics"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
	pkgredis "github.com/shokujin-wiki/shokujin-api/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs: rate
// limit counters, idempotency records and a health ping.
type RedisStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiterStore
	Ping(ctx context.Context) error
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth     auth.Service
	Users    users.Service
	Products products.Service
	Reviews  reviews.Service
	Articles articles.Service
	Media    media.Service
	Eats     eats.Service
	Options  options.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	storageP controllers.Pinger,
	sessions session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
		middleware.OriginVerify(cfg.App.IsProd(), cfg.Origin.VerifyToken, logg),
	)

	var (
		rateStore   middleware.RateLimiterStore
		idemStore   pkgredis.IdempotencyStore
		redisPinger controllers.Pinger
	)
	if redisStore != nil {
		rateStore = redisStore
		idemStore = redisStore
		redisPinger = redisStore
	}

	resolver := pagination.NewResolver(cfg.Pagination.MaxLimit)
	uploadMax := cfg.Storage.UploadMaxMB << 20
	idempotent := middleware.Idempotency(idemStore, cfg.RateLimit.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":      dbP,
			"redis":   redisPinger,
			"storage": storageP,
		}))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.SignupRateLimitPolicy(cfg.RateLimit), rateStore, logg), idempotent).
			Post("/signup", controllers.AuthSignup(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.RateLimit), rateStore, logg)).
			Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Get("/products", controllers.ListProducts(svc.Products, resolver, logg))
		r.Get("/products/search", controllers.SearchProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.GetProductPage(svc.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ListProductReviews(svc.Reviews, resolver, logg))
		r.Get("/reviews", controllers.ListReviews(svc.Reviews, resolver, logg))
		r.Get("/reviews/{reviewId}", controllers.GetReview(svc.Reviews, logg))
		r.Get("/articles", controllers.ListArticles(svc.Articles, resolver, logg))
		r.Get("/articles/{slug}", controllers.GetArticle(svc.Articles, logg))
		r.Get("/eats", controllers.ListEats(svc.Eats, resolver, logg))
		r.Get("/eats/{eatId}", controllers.GetEat(svc.Eats, logg))
		r.Get("/options", controllers.SearchOptions(svc.Options, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, svc.Users, logg))
			r.Use(idempotent)

			r.Get("/me", controllers.GetMe(svc.Users, logg))
			r.Patch("/me/name", controllers.UpdateMyName(svc.Users, logg))
			r.Delete("/me/name", controllers.ResetMyName(svc.Users, logg))

			r.Post("/products", controllers.CreateProduct(svc.Products, logg))
			r.Put("/products/{productId}", controllers.UpdateProduct(svc.Products, logg))

			r.Post("/reviews", controllers.CreateReview(svc.Reviews, logg))
			r.Put("/reviews/{reviewId}", controllers.UpdateReview(svc.Reviews, logg))

			r.Post("/articles", controllers.CreateArticle(svc.Articles, logg))
			r.Put("/articles/{slug}", controllers.UpdateArticle(svc.Articles, logg))
			r.Get("/articles/{slug}/edit", controllers.GetArticleEditForm(svc.Articles, logg))

			r.Post("/media/presign", controllers.MediaPresign(svc.Media, logg))
			r.Post("/media/upload", controllers.MediaUpload(svc.Media, uploadMax, logg))

			r.Post("/eats", controllers.CreateEat(svc.Eats, uploadMax, logg))
		})
	})

	return r
}
