package checkout

import (
	"context"
	"sync"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
	lookups  []string
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]domain.Product)}
	for _, p := range products {
		c.products[p.Slug] = p
	}
	return c
}

func (c *fakeCatalog) Lookup(_ context.Context, slug string) (domain.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups = append(c.lookups, slug)
	if c.err != nil {
		return domain.Product{}, false, c.err
	}
	p, ok := c.products[slug]
	return p, ok, nil
}

func (c *fakeCatalog) lookupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lookups)
}

type fakeProvider struct {
	mu       sync.Mutex
	result   domain.CheckoutSessionResult
	err      error
	requests []domain.CheckoutSessionRequest
}

func (p *fakeProvider) CreateSession(_ context.Context, req domain.CheckoutSessionRequest) (domain.CheckoutSessionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.err != nil {
		return domain.CheckoutSessionResult{}, p.err
	}
	return p.result, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakeProvider) lastRequest() domain.CheckoutSessionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

var (
	lookzePro = domain.Product{
		ID:               "prod_lookze_pro",
		Slug:             "lookze-pro",
		Name:             "Lookze Pro",
		ShortDescription: "Analytics dashboard template",
		Price:            4900,
		Currency:         "EUR",
		DownloadURL:      "https://downloads.example.com/lookze-pro.zip",
	}
	metricaLite = domain.Product{
		ID:               "prod_metrica_lite",
		Slug:             "metrica-lite",
		Name:             "Metrica Lite",
		ShortDescription: "Lightweight admin template",
		Price:            1999,
		Currency:         "EUR",
		DownloadURL:      "https://downloads.example.com/metrica-lite.zip",
	}
	nimbusSaas = domain.Product{
		ID:               "prod_nimbus_saas",
		Slug:             "nimbus-saas",
		Name:             "Nimbus SaaS",
		ShortDescription: "SaaS metrics dashboard",
		Price:            12900,
		Currency:         "USD",
		DownloadURL:      "https://downloads.example.com/nimbus-saas.zip",
	}
)
