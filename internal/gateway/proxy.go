package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const requestIDHeader = "X-Request-Id"

// forwardedHeaders are copied from the client request to the upstream service.
var forwardedHeaders = []string{
	"Content-Type",
	"Idempotency-Key",
	"Stripe-Signature",
	requestIDHeader,
}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: baseURL,
		client:  client,
	}
}

// ForwardRequest replays r against path on the upstream service, keeping the query
// string. A request id assigned by the RequestID middleware is sent when the client
// did not supply one.
func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if req.Header.Get(requestIDHeader) == "" {
		if id := middleware.GetReqID(ctx); id != "" {
			req.Header.Set(requestIDHeader, id)
		}
	}

	return p.client.Do(req)
}
