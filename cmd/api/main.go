package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shokujin-wiki/shokujin-api/api/routes"
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
	"github.com/shokujin-wiki/shokujin-api/pkg/instance"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
	"github.com/shokujin-wiki/shokujin-api/pkg/metrics"
	"github.com/shokujin-wiki/shokujin-api/pkg/migrate"
	"github.com/shokujin-wiki/shokujin-api/pkg/redis"
	"github.com/shokujin-wiki/shokujin-api/pkg/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	store, err := s3.NewClient(ctx, cfg.Storage, cfg.Features.EnsureBucket, logg)
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	contentMetrics := metrics.NewContentMetrics(reg)

	svc, err := buildServices(cfg, dbClient, store, sessionManager, contentMetrics)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, store, sessionManager, reg, metrics.NewHTTPMetrics(reg), svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, dbClient *db.Client, store *s3.Client, sessions *session.Manager, m *metrics.ContentMetrics) (routes.Services, error) {
	var errs error
	gdb := dbClient.DB()

	productRepo := products.NewRepository(gdb)
	reviewRepo := reviews.NewRepository(gdb)

	userService, err := users.NewService(users.NewRepository(gdb))
	errs = multierr.Append(errs, err)

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		Identities:     auth.NewIdentityRepository(gdb),
		Users:          userService,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	errs = multierr.Append(errs, err)

	productService, err := products.NewService(productRepo, m)
	errs = multierr.Append(errs, err)

	reviewService, err := reviews.NewService(reviewRepo, m)
	errs = multierr.Append(errs, err)

	articleService, err := articles.NewService(articles.ServiceParams{
		DB:       dbClient,
		Repo:     articles.NewRepository(gdb),
		Products: productRepo,
		Reviews:  reviewRepo,
		Metrics:  m,
	})
	errs = multierr.Append(errs, err)

	mediaService, err := media.NewService(media.ServiceParams{
		Store:          store,
		PresignExpiry:  cfg.Storage.UploadURLExpiry,
		PresignMaxSize: cfg.Storage.PresignMaxMB << 20,
		UploadMaxSize:  cfg.Storage.UploadMaxMB << 20,
	})
	errs = multierr.Append(errs, err)

	eatService, err := eats.NewService(eats.ServiceParams{
		DB:       dbClient,
		Repo:     eats.NewRepository(gdb),
		Uploader: mediaService,
		Metrics:  m,
	})
	errs = multierr.Append(errs, err)

	optionService, err := options.NewService(options.NewRepository(gdb))
	errs = multierr.Append(errs, err)

	if errs != nil {
		return routes.Services{}, errs
	}
	return routes.Services{
		Auth:     authService,
		Users:    userService,
		Products: productService,
		Reviews:  reviewService,
		Articles: articleService,
		Media:    mediaService,
		Eats:     eatService,
		Options:  optionService,
	}, nil
}
