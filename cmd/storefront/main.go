package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/mailer"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/keylock"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}

	store := &repo.GormRepo{DB: db}
	if err := store.Migrate(initCtx); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}

	atomic := cfg.CartUpsertMode == config.ModeAtomic
	if atomic {
		if err := store.EnsureCartUniqueness(initCtx); err != nil {
			logger.Warn("cart_unique_index_unavailable", "error", err, "fallback", config.ModeLocked)
			atomic = false
		}
	}

	var search *service.SearchService
	if cfg.SearchEnabled() {
		client, err := es.NewClient(initCtx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			search = &service.SearchService{ES: client, Index: cfg.ESIndex}
		}
	}
	cancel()

	var (
		locker keylock.Locker = keylock.NewMemoryLocker()
		rdb    *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = keylock.NewRedisLocker(rdb)
	}

	prod := mykafka.NewProducer(cfg.KafkaBrokers)

	cartSvc := &service.CartService{
		Repo:   store,
		Locker: locker,
		Atomic: atomic,
		Topic:  cfg.CartEventsTopic,
	}
	if prod != nil {
		cartSvc.Publisher = prod
	}
	logger.Info("cart_upsert_mode", "atomic", atomic, "redis_lock", rdb != nil, "events", prod != nil)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		loggingmw.RequestLogger(logger),
		m.Middleware(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     corsOrigins(cfg.CORSOrigins),
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, httpserver.CSRFHeaderName},
			AllowCredentials: len(cfg.CORSOrigins) > 0,
		}),
		middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}),
	)

	deps := &httpserver.Deps{
		Cart:    &httpserver.CartHTTP{Svc: cartSvc, Metrics: m},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: store}, Search: search},
		Metrics:    m,
		Ready:      store.Ping,
		SecureCSRF: cfg.CookieSecure,
	}
	if cfg.NewsletterEnabled() {
		deps.Newsletter = &httpserver.NewsletterHTTP{
			Svc: &service.NewsletterService{Mailer: mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridFrom)},
		}
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Printf("Starting %s on %s...", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		log.Printf("db close error: %v", err)
	}

	log.Println("shutdown complete")
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
