package payment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

var ErrMissingSessionURL = errors.New("provider returned a session without a redirect url")

type StripeConfig struct {
	SecretKey string
	// APIURL overrides the Stripe API origin, e.g. for stripe-mock.
	APIURL     string
	Timeout    time.Duration
	HTTPClient *http.Client
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// StripeProvider opens hosted Stripe Checkout sessions. Network retries are disabled: a
// failed call is reported to the caller, who may resubmit.
type StripeProvider struct {
	sessions session.Client
	breaker  *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	logger   *slog.Logger
}

func NewStripeProvider(cfg StripeConfig, logger *slog.Logger) *StripeProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &slogLeveledLogger{logger: logger},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &StripeProvider{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
			Key: cfg.SecretKey,
		},
		breaker: breaker,
		logger:  logger,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req domain.CheckoutSessionRequest) (domain.CheckoutSessionResult, error) {
	params := newSessionParams(req)
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	if err != nil {
		p.logFailure(ctx, err)
		return domain.CheckoutSessionResult{}, err
	}

	if s.URL == "" {
		p.logger.ErrorContext(ctx, "stripe session has no url", "session_id", s.ID)
		return domain.CheckoutSessionResult{}, ErrMissingSessionURL
	}

	return domain.CheckoutSessionResult{URL: s.URL, SessionID: s.ID}, nil
}

func newSessionParams(req domain.CheckoutSessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.ProductName),
			Metadata: item.Metadata,
		}
		if item.ProductDescription != "" {
			productData.Description = stripe.String(item.ProductDescription)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(item.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(req.Mode),
		PaymentMethodTypes: stripe.StringSlice(req.PaymentMethodTypes),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		Metadata:           req.Metadata,
	}
	if req.Locale != "" {
		params.Locale = stripe.String(req.Locale)
	}
	return params
}

// countsAsHealthy keeps request-shape rejections from tripping the breaker; only
// transport failures, rate limiting and server errors count against Stripe.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status := stripeErr.HTTPStatusCode
		return status >= 400 && status < 500 && status != http.StatusTooManyRequests
	}
	return false
}

func (p *StripeProvider) logFailure(ctx context.Context, err error) {
	var stripeErr *stripe.Error
	switch {
	case errors.As(err, &stripeErr):
		p.logger.ErrorContext(ctx, "stripe rejected checkout session",
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"status", stripeErr.HTTPStatusCode,
			"request_id", stripeErr.RequestID,
			"message", stripeErr.Msg,
		)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		p.logger.WarnContext(ctx, "stripe circuit breaker rejected call", "error", err)
	default:
		p.logger.ErrorContext(ctx, "stripe checkout session call failed", "error", err)
	}
}
