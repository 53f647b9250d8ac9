package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

var errNotFound = errors.New("not found")

type storefrontClient struct {
	baseURL    string
	httpClient *http.Client
}

func (c *storefrontClient) product(ctx context.Context, slug string) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(slug), nil, &p)
	return p, err
}

func (c *storefrontClient) purchase(ctx context.Context, sessionID string) (domain.Purchase, error) {
	var p domain.Purchase
	err := c.do(ctx, http.MethodGet, "/api/purchases/"+url.PathEscape(sessionID), nil, &p)
	return p, err
}

func (c *storefrontClient) updateStatus(ctx context.Context, sessionID string, status domain.PurchaseStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, "/api/purchases/"+url.PathEscape(sessionID)+"/status", body, nil)
}

func (c *storefrontClient) do(ctx context.Context, method, path string, body, out any) error {
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type emailRequest struct {
	To             string `json:"to"`
	CustomerName   string `json:"customer_name"`
	ProductName    string `json:"product_name"`
	DownloadURL    string `json:"download_url"`
	OrderReference string `json:"order_reference"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

func sendEmail(ctx context.Context, client *http.Client, emailServiceURL string, body emailRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
