package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joao-fontenele/dashboard-storefront/internal/shop"
)

func main() {
	gatewayURL := flag.String("gateway", envOr("GATEWAY_URL", "http://localhost:8080"), "storefront gateway base URL")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := shop.NewClient(*gatewayURL, &http.Client{Timeout: *timeout})
	shell := shop.NewShell(client, os.Stdout)

	fmt.Println("dashboard storefront, type help for commands")
	if err := shell.Run(ctx, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
