package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

func newTestHandler(t *testing.T, catalog *fakeCatalog, provider *fakeProvider) *Handler {
	t.Helper()
	handler, err := NewHandler(newTestComposer(catalog, provider), 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return handler
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_HandleCheckout(t *testing.T) {
	t.Run("returns url and session id", func(t *testing.T) {
		provider := &fakeProvider{result: domain.CheckoutSessionResult{
			URL:       "https://checkout.stripe.com/c/pay/cs_test_123",
			SessionID: "cs_test_123",
		}}
		handler := newTestHandler(t, newFakeCatalog(lookzePro), provider)

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"items":[{"slug":"lookze-pro","quantity":1}]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", " abc-123 ")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody(t, rec)
		if resp["url"] != "https://checkout.stripe.com/c/pay/cs_test_123" {
			t.Errorf("unexpected url: %s", resp["url"])
		}
		if resp["sessionId"] != "cs_test_123" {
			t.Errorf("unexpected sessionId: %s", resp["sessionId"])
		}
		if provider.lastRequest().IdempotencyKey != "abc-123" {
			t.Errorf("expected trimmed idempotency key, got %q", provider.lastRequest().IdempotencyKey)
		}
	})

	t.Run("empty cart is a client error", func(t *testing.T) {
		for _, body := range []string{`{"items":[]}`, `{}`} {
			provider := &fakeProvider{}
			handler := newTestHandler(t, newFakeCatalog(lookzePro), provider)

			rec := httptest.NewRecorder()
			handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", body, rec.Code)
			}
			if resp := decodeBody(t, rec); resp["error"] != msgEmptyCart {
				t.Errorf("%s: unexpected error message: %s", body, resp["error"])
			}
			if provider.calls() != 0 {
				t.Errorf("%s: expected no provider call", body)
			}
		}
	})

	t.Run("unknown slug is a client error naming the slug", func(t *testing.T) {
		provider := &fakeProvider{}
		handler := newTestHandler(t, newFakeCatalog(lookzePro), provider)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
			strings.NewReader(`{"items":[{"slug":"ghost","quantity":1}]}`)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if resp := decodeBody(t, rec); !strings.Contains(resp["error"], "ghost") {
			t.Errorf("expected error to reference ghost, got %s", resp["error"])
		}
		if provider.calls() != 0 {
			t.Errorf("expected no provider call, got %d", provider.calls())
		}
	})

	t.Run("invalid quantity is a client error", func(t *testing.T) {
		handler := newTestHandler(t, newFakeCatalog(lookzePro), &fakeProvider{})

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
			strings.NewReader(`{"items":[{"slug":"lookze-pro","quantity":0}]}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body is a client error", func(t *testing.T) {
		handler := newTestHandler(t, newFakeCatalog(lookzePro), &fakeProvider{})

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"items":`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if resp := decodeBody(t, rec); resp["error"] != "invalid request body" {
			t.Errorf("unexpected error message: %s", resp["error"])
		}
	})

	t.Run("provider failure is a generic server error", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("stripe: api_error: secret detail req_123")}
		handler := newTestHandler(t, newFakeCatalog(lookzePro), provider)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
			strings.NewReader(`{"items":[{"slug":"lookze-pro","quantity":1}]}`)))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
		resp := decodeBody(t, rec)
		if resp["error"] != msgProviderFailure {
			t.Errorf("unexpected error message: %s", resp["error"])
		}
		if strings.Contains(rec.Body.String(), "secret detail") {
			t.Error("provider detail leaked to the client")
		}
		if provider.calls() != 1 {
			t.Errorf("expected a single provider call, got %d", provider.calls())
		}
	})

	t.Run("catalog failure is an internal error", func(t *testing.T) {
		catalog := newFakeCatalog(lookzePro)
		catalog.err = errors.New("db down")
		handler := newTestHandler(t, catalog, &fakeProvider{})

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
			strings.NewReader(`{"items":[{"slug":"lookze-pro","quantity":1}]}`)))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if resp := decodeBody(t, rec); resp["error"] != msgInternalError {
			t.Errorf("unexpected error message: %s", resp["error"])
		}
	})
}

func TestHandler_HandleSuccess(t *testing.T) {
	handler := newTestHandler(t, newFakeCatalog(), &fakeProvider{})

	t.Run("returns reference and clear signal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleSuccess(rec, httptest.NewRequest(http.MethodGet, "/api/checkout/success?session_id=cs_test_a1b2c3d4e5f6g7h8", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp successResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Reference != "E5F6G7H8" {
			t.Errorf("expected reference E5F6G7H8, got %s", resp.Reference)
		}
		if !resp.ClearCart {
			t.Error("expected clear_cart to be true")
		}
	})

	t.Run("missing session id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleSuccess(rec, httptest.NewRequest(http.MethodGet, "/api/checkout/success", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}
