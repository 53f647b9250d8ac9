// Package shop is a command-line storefront client that talks to the gateway.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront returned %d: %s", e.Status, e.Message)
}

type Success struct {
	SessionID string `json:"session_id"`
	Reference string `json:"reference"`
	ClearCart bool   `json:"clear_cart"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Checkout asks the storefront for a hosted payment page for items. Requests with the
// same idempotencyKey resolve to the same provider session.
func (c *Client) Checkout(ctx context.Context, items []domain.CartItem, idempotencyKey string) (domain.CheckoutSessionResult, error) {
	var result domain.CheckoutSessionResult
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	body := map[string][]domain.CartItem{"items": items}
	if err := c.do(ctx, http.MethodPost, "/api/checkout", headers, body, &result); err != nil {
		return domain.CheckoutSessionResult{}, err
	}
	return result, nil
}

func (c *Client) ConfirmSuccess(ctx context.Context, sessionID string) (Success, error) {
	var success Success
	path := "/api/checkout/success?session_id=" + url.QueryEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &success); err != nil {
		return Success{}, err
	}
	return success, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
