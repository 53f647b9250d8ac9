package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	msgEmptyCart       = "Your cart is empty."
	msgProviderFailure = "Could not start checkout. Please try again."
	msgInternalError   = "internal server error"

	maxRequestBodyBytes = 64 << 10
)

var meter = otel.Meter("checkout")

type Handler struct {
	composer *Composer
	timeout  time.Duration
	logger   *slog.Logger
	sessions metric.Int64Counter
}

func NewHandler(composer *Composer, timeout time.Duration, logger *slog.Logger) (*Handler, error) {
	sessions, err := meter.Int64Counter("storefront.checkout.sessions",
		metric.WithDescription("Checkout session attempts by outcome."),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		composer: composer,
		timeout:  timeout,
		logger:   logger,
		sessions: sessions,
	}, nil
}

type checkoutRequest struct {
	Items []domain.CartItem `json:"items"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		h.record(r.Context(), "invalid_request")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.composer.Compose(ctx, Request{
		Items:          req.Items,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		h.handleComposeError(w, r, err)
		return
	}

	h.record(r.Context(), "created")
	h.logger.InfoContext(r.Context(), "checkout session created", "session_id", result.SessionID, "items", len(req.Items))
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleComposeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var invalidItem *InvalidItemError
	var unresolved *UnresolvedProductError
	var providerErr *ProviderError

	switch {
	case errors.Is(err, ErrEmptyCart):
		h.record(ctx, "empty_cart")
		h.writeError(w, http.StatusBadRequest, msgEmptyCart)
	case errors.As(err, &invalidItem):
		h.record(ctx, "invalid_item")
		h.writeError(w, http.StatusBadRequest, invalidItem.Error())
	case errors.As(err, &unresolved):
		h.record(ctx, "unresolved_product")
		h.logger.InfoContext(ctx, "checkout rejected: unknown product", "slug", unresolved.Slug)
		h.writeError(w, http.StatusBadRequest, unresolved.Error())
	case errors.As(err, &providerErr):
		h.record(ctx, "provider_error")
		h.logger.ErrorContext(ctx, "failed to create checkout session", "error", providerErr.Err)
		h.writeError(w, http.StatusInternalServerError, msgProviderFailure)
	default:
		h.record(ctx, "unexpected_error")
		h.logger.ErrorContext(ctx, "checkout failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

type successResponse struct {
	SessionID string `json:"session_id"`
	Reference string `json:"reference"`
	ClearCart bool   `json:"clear_cart"`
}

// HandleSuccess backs the page customers land on after paying. Clients clear their cart
// only when this answers with clear_cart.
func (h *Handler) HandleSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}

	h.writeJSON(w, http.StatusOK, successResponse{
		SessionID: sessionID,
		Reference: domain.OrderReference(sessionID),
		ClearCart: true,
	})
}

func (h *Handler) record(ctx context.Context, outcome string) {
	h.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
