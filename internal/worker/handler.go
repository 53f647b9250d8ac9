package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
	"github.com/joao-fontenele/dashboard-storefront/internal/messaging"
)

// FulfillmentHandler delivers download links for completed purchases. Emails already
// sent for a purchase are remembered until it is marked fulfilled, so a retried message
// only mails the products that failed. That memory is per process: a restart between
// attempts can repeat an email.
type FulfillmentHandler struct {
	emailServiceURL string
	storefront      *storefrontClient
	httpClient      *http.Client
	logger          *slog.Logger

	mu   sync.Mutex
	sent map[string]map[string]struct{}
}

func NewFulfillmentHandler(emailServiceURL, storefrontServiceURL string, client *http.Client, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		emailServiceURL: emailServiceURL,
		storefront:      &storefrontClient{baseURL: storefrontServiceURL, httpClient: client},
		httpClient:      client,
		logger:          logger,
		sent:            make(map[string]map[string]struct{}),
	}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.PurchaseCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal purchase completed event: %w: %w", messaging.ErrSkip, err)
	}
	if event.SessionID == "" {
		return fmt.Errorf("purchase completed event without session id: %w", messaging.ErrSkip)
	}

	h.logger.InfoContext(ctx, "processing purchase completed event", "purchase_id", event.PurchaseID, "session_id", event.SessionID)

	purchase, err := h.storefront.purchase(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("purchase %s does not exist: %w", event.SessionID, messaging.ErrSkip)
		}
		return fmt.Errorf("get purchase: %w", err)
	}
	if purchase.Status != domain.PurchaseStatusPaid {
		h.logger.InfoContext(ctx, "purchase already handled", "session_id", event.SessionID, "status", purchase.Status)
		return nil
	}

	products, err := h.resolveProducts(ctx, event.Slugs)
	if err != nil {
		var unknown *unknownProductError
		if !errors.As(err, &unknown) {
			return err
		}

		h.logger.ErrorContext(ctx, "purchase references unknown product", "session_id", event.SessionID, "slug", unknown.slug)
		if err := h.storefront.updateStatus(ctx, event.SessionID, domain.PurchaseStatusFulfillmentFailed); err != nil {
			return fmt.Errorf("mark fulfillment failed: %w", err)
		}
		return nil
	}

	reference := domain.OrderReference(event.SessionID)
	for _, p := range products {
		if h.wasSent(event.SessionID, p.Slug) {
			continue
		}
		err := sendEmail(ctx, h.httpClient, h.emailServiceURL, emailRequest{
			To:             event.CustomerEmail,
			CustomerName:   event.CustomerName,
			ProductName:    p.Name,
			DownloadURL:    p.DownloadURL,
			OrderReference: reference,
			Amount:         p.Price,
			Currency:       p.Currency,
		})
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to send download email", "error", err, "session_id", event.SessionID, "slug", p.Slug)
			return fmt.Errorf("send download email for %s: %w", p.Slug, err)
		}
		h.markSent(event.SessionID, p.Slug)
	}

	if err := h.storefront.updateStatus(ctx, event.SessionID, domain.PurchaseStatusFulfilled); err != nil {
		h.logger.ErrorContext(ctx, "failed to update purchase status", "error", err, "session_id", event.SessionID)
		return fmt.Errorf("mark fulfilled: %w", err)
	}
	h.forget(event.SessionID)

	h.logger.InfoContext(ctx, "purchase fulfilled", "session_id", event.SessionID, "reference", reference, "emails", len(products))
	return nil
}

type unknownProductError struct {
	slug string
}

func (e *unknownProductError) Error() string {
	return "unknown product: " + e.slug
}

func (h *FulfillmentHandler) resolveProducts(ctx context.Context, slugs []string) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(slugs))
	for _, slug := range slugs {
		p, err := h.storefront.product(ctx, slug)
		if err != nil {
			if errors.Is(err, errNotFound) {
				return nil, &unknownProductError{slug: slug}
			}
			return nil, fmt.Errorf("get product %s: %w", slug, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (h *FulfillmentHandler) wasSent(sessionID, slug string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sent[sessionID][slug]
	return ok
}

func (h *FulfillmentHandler) markSent(sessionID, slug string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sent[sessionID] == nil {
		h.sent[sessionID] = make(map[string]struct{})
	}
	h.sent[sessionID][slug] = struct{}{}
}

func (h *FulfillmentHandler) forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sent, sessionID)
}
