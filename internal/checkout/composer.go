package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

const (
	MinQuantity = 1
	MaxQuantity = 100
)

var tracer = otel.Tracer("checkout")

type ProductLookup interface {
	Lookup(ctx context.Context, slug string) (domain.Product, bool, error)
}

type PaymentProvider interface {
	CreateSession(ctx context.Context, req domain.CheckoutSessionRequest) (domain.CheckoutSessionResult, error)
}

type Config struct {
	// BaseURL is the public origin customers are redirected back to.
	BaseURL string
	Locale  string
}

type Request struct {
	Items          []domain.CartItem
	IdempotencyKey string
}

type Composer struct {
	catalog  ProductLookup
	provider PaymentProvider
	cfg      Config
}

func NewComposer(catalog ProductLookup, provider PaymentProvider, cfg Config) *Composer {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Composer{
		catalog:  catalog,
		provider: provider,
		cfg:      cfg,
	}
}

// Compose turns a cart into exactly one hosted payment session. It stops at the first
// invalid item or unknown slug, and in that case the provider is never called.
func (c *Composer) Compose(ctx context.Context, req Request) (domain.CheckoutSessionResult, error) {
	ctx, span := tracer.Start(ctx, "checkout.compose")
	defer span.End()
	span.SetAttributes(attribute.Int("checkout.items", len(req.Items)))

	result, err := c.compose(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.CheckoutSessionResult{}, err
	}

	span.SetAttributes(attribute.String("checkout.session_id", result.SessionID))
	return result, nil
}

func (c *Composer) compose(ctx context.Context, req Request) (domain.CheckoutSessionResult, error) {
	if len(req.Items) == 0 {
		return domain.CheckoutSessionResult{}, ErrEmptyCart
	}

	for i, item := range req.Items {
		if err := validateItem(i, item); err != nil {
			return domain.CheckoutSessionResult{}, err
		}
	}

	lineItems := make([]domain.LineItem, 0, len(req.Items))
	slugs := make([]string, 0, len(req.Items))

	for _, item := range req.Items {
		product, found, err := c.catalog.Lookup(ctx, item.Slug)
		if err != nil {
			return domain.CheckoutSessionResult{}, fmt.Errorf("lookup product %s: %w", item.Slug, err)
		}
		if !found {
			return domain.CheckoutSessionResult{}, &UnresolvedProductError{Slug: item.Slug}
		}

		lineItems = append(lineItems, newLineItem(product, item))
		slugs = append(slugs, item.Slug)
	}

	sessionReq := domain.CheckoutSessionRequest{
		Mode:               domain.PaymentModeOneTime,
		PaymentMethodTypes: []string{domain.PaymentMethodCard},
		LineItems:          lineItems,
		SuccessURL:         c.cfg.BaseURL + "/checkout/success?session_id=" + domain.SessionIDPlaceholder,
		CancelURL:          c.cfg.BaseURL + "/cart",
		Metadata: map[string]string{
			domain.MetadataKeySlugs: strings.Join(slugs, domain.SlugSeparator),
		},
		Locale:         c.cfg.Locale,
		IdempotencyKey: req.IdempotencyKey,
	}

	result, err := c.provider.CreateSession(ctx, sessionReq)
	if err != nil {
		return domain.CheckoutSessionResult{}, &ProviderError{Err: err}
	}

	return result, nil
}

func validateItem(index int, item domain.CartItem) error {
	if strings.TrimSpace(item.Slug) == "" {
		return &InvalidItemError{Index: index, Slug: item.Slug, Reason: "slug is required"}
	}
	if strings.Contains(item.Slug, domain.SlugSeparator) {
		return &InvalidItemError{Index: index, Slug: item.Slug, Reason: "slug must not contain " + strconv.Quote(domain.SlugSeparator)}
	}
	if item.Quantity < MinQuantity || item.Quantity > MaxQuantity {
		return &InvalidItemError{
			Index:  index,
			Slug:   item.Slug,
			Reason: fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity),
		}
	}
	return nil
}

func newLineItem(product domain.Product, item domain.CartItem) domain.LineItem {
	return domain.LineItem{
		Currency:           strings.ToLower(product.Currency),
		ProductName:        product.Name,
		ProductDescription: product.ShortDescription,
		Metadata: map[string]string{
			domain.MetadataKeyProductID: product.ID,
			domain.MetadataKeySlug:      item.Slug,
		},
		UnitAmount: product.Price,
		Quantity:   int64(item.Quantity),
	}
}
