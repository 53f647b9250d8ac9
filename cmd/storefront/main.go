package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/dashboard-storefront/internal/catalog"
	"github.com/joao-fontenele/dashboard-storefront/internal/checkout"
	"github.com/joao-fontenele/dashboard-storefront/internal/messaging"
	"github.com/joao-fontenele/dashboard-storefront/internal/payment"
	"github.com/joao-fontenele/dashboard-storefront/internal/purchases"
	"github.com/joao-fontenele/dashboard-storefront/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger("storefront")

	tel, err := telemetry.Setup(ctx, "storefront", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		logger.Error("STRIPE_SECRET_KEY environment variable is required")
		os.Exit(1)
	}

	checkoutTimeout := getDuration(logger, "CHECKOUT_TIMEOUT", 10*time.Second)

	var db *sql.DB
	var store catalog.Store
	if postgresURL := os.Getenv("POSTGRES_URL"); postgresURL != "" {
		db, err = telemetry.OpenDB(ctx, postgresURL, "storefront")
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		store = catalog.NewRepository(db)
	} else {
		catalogFile := getEnv("CATALOG_FILE", "configs/catalog.yaml")
		memory, err := catalog.LoadFile(catalogFile)
		if err != nil {
			logger.Error("failed to load catalog", "error", err, "file", catalogFile)
			os.Exit(1)
		}
		logger.Info("serving catalog from file", "file", catalogFile)
		store = memory
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, catalog cache will fall through", "error", err, "addr", redisAddr)
		}
		cache := catalog.NewCache(store, rdb, getDuration(logger, "CATALOG_CACHE_TTL", 5*time.Minute), logger)
		// prices may have changed since the last deploy
		if err := cache.InvalidateAll(ctx); err != nil {
			logger.Warn("failed to reset catalog cache", "error", err)
		}
		store = cache
	}

	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey: stripeKey,
		APIURL:    os.Getenv("STRIPE_API_URL"),
		Timeout:   checkoutTimeout,
	}, logger)

	composer := checkout.NewComposer(store, provider, checkout.Config{
		BaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		Locale:  getEnv("CHECKOUT_LOCALE", "en"),
	})

	checkoutHandler, err := checkout.NewHandler(composer, checkoutTimeout, logger)
	if err != nil {
		logger.Error("failed to create checkout handler", "error", err)
		os.Exit(1)
	}
	catalogHandler := catalog.NewHandler(store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", telemetry.WithHTTPRoute(catalogHandler.HandleList))
	mux.HandleFunc("GET /api/products/{slug}", telemetry.WithHTTPRoute(catalogHandler.HandleGet))
	mux.HandleFunc("POST /api/checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleCheckout))
	mux.HandleFunc("GET /api/checkout/success", telemetry.WithHTTPRoute(checkoutHandler.HandleSuccess))

	if db != nil {
		webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		if webhookSecret == "" {
			logger.Error("STRIPE_WEBHOOK_SECRET environment variable is required when POSTGRES_URL is set")
			os.Exit(1)
		}

		var publisher purchases.Publisher
		if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
			producer := messaging.NewProducer(strings.Split(kafkaBrokers, ","), messaging.TopicPurchaseCompleted, messaging.EventPurchaseCompleted)
			defer func() { _ = producer.Close() }()
			publisher = producer
		} else {
			logger.Warn("KAFKA_BROKERS not set, purchases will not be fulfilled")
		}

		purchasesHandler := purchases.NewHandler(purchases.NewRepository(db), publisher, webhookSecret, logger)
		mux.HandleFunc("POST /api/webhooks/stripe", telemetry.WithHTTPRoute(purchasesHandler.HandleStripeWebhook))
		mux.HandleFunc("GET /api/purchases/{sessionId}", telemetry.WithHTTPRoute(purchasesHandler.HandleGet))
		mux.HandleFunc("PATCH /api/purchases/{sessionId}/status", telemetry.WithHTTPRoute(purchasesHandler.HandleUpdateStatus))
	} else {
		logger.Warn("POSTGRES_URL not set, webhooks and purchases are disabled")
	}

	mux.Handle("GET /metrics", tel.MetricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	port := getEnv("PORT", "8081")

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(middleware.RequestID(middleware.Recoverer(mux)), "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: checkoutTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(logger *slog.Logger, key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Error("invalid duration", "key", key, "value", value)
		os.Exit(1)
	}
	return d
}
