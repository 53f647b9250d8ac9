package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/dashboard-storefront/internal/gateway"
	"github.com/joao-fontenele/dashboard-storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger("gateway")

	tel, err := telemetry.Setup(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	storefrontServiceURL := os.Getenv("STOREFRONT_SERVICE_URL")
	if storefrontServiceURL == "" {
		logger.Error("STOREFRONT_SERVICE_URL is required")
		os.Exit(1)
	}

	rps, err := strconv.ParseFloat(getEnv("CHECKOUT_RATE_LIMIT_RPS", "2"), 64)
	if err != nil || rps <= 0 {
		logger.Error("CHECKOUT_RATE_LIMIT_RPS must be a positive number")
		os.Exit(1)
	}
	burst, err := strconv.Atoi(getEnv("CHECKOUT_RATE_LIMIT_BURST", "5"))
	if err != nil || burst <= 0 {
		logger.Error("CHECKOUT_RATE_LIMIT_BURST must be a positive integer")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   20 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	handler := gateway.NewHandler(gateway.NewServiceProxy(storefrontServiceURL, httpClient), logger)

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := gateway.NewRateLimiter(rps, burst, logger)
	go limiter.Run(limiterCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /api/products/{slug}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /api/checkout", telemetry.WithHTTPRoute(limiter.LimitFunc(handler.HandleStorefront)))
	mux.HandleFunc("GET /api/checkout/success", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /api/webhooks/stripe", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /api/purchases/{sessionId}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.Handle("GET /metrics", tel.MetricsHandler)

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(middleware.RequestID(middleware.RealIP(middleware.Recoverer(mux))), "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 25 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
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
