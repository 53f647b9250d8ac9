package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

var propertyCatalog = []domain.Product{lookzePro, metricaLite, nimbusSaas}

func cartFromIndices(indices []int, quantity int) []domain.CartItem {
	items := make([]domain.CartItem, len(indices))
	for i, idx := range indices {
		items[i] = domain.CartItem{Slug: propertyCatalog[idx].Slug, Quantity: quantity}
	}
	return items
}

func TestComposerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	indices := gen.SliceOf(gen.IntRange(0, len(propertyCatalog)-1))
	quantity := gen.IntRange(MinQuantity, MaxQuantity)

	properties.Property("resolved carts produce one call with line items in cart order", prop.ForAll(
		func(idx []int, qty int) bool {
			if len(idx) == 0 {
				return true
			}
			provider := &fakeProvider{result: domain.CheckoutSessionResult{URL: "u", SessionID: "s"}}
			composer := newTestComposer(newFakeCatalog(propertyCatalog...), provider)
			cart := cartFromIndices(idx, qty)

			if _, err := composer.Compose(context.Background(), Request{Items: cart}); err != nil {
				return false
			}
			if provider.calls() != 1 {
				return false
			}
			req := provider.lastRequest()
			if len(req.LineItems) != len(cart) {
				return false
			}
			for i, item := range req.LineItems {
				if item.Metadata[domain.MetadataKeySlug] != cart[i].Slug || item.Quantity != int64(cart[i].Quantity) {
					return false
				}
			}
			return true
		},
		indices, quantity,
	))

	properties.Property("unit amount and currency are copied from the catalog", prop.ForAll(
		func(idx []int, qty int) bool {
			if len(idx) == 0 {
				return true
			}
			provider := &fakeProvider{result: domain.CheckoutSessionResult{URL: "u", SessionID: "s"}}
			composer := newTestComposer(newFakeCatalog(propertyCatalog...), provider)

			if _, err := composer.Compose(context.Background(), Request{Items: cartFromIndices(idx, qty)}); err != nil {
				return false
			}
			for i, item := range provider.lastRequest().LineItems {
				product := propertyCatalog[idx[i]]
				if item.UnitAmount != product.Price || item.Currency != strings.ToLower(product.Currency) {
					return false
				}
			}
			return true
		},
		indices, quantity,
	))

	properties.Property("slug metadata splits back into the cart's slug sequence", prop.ForAll(
		func(idx []int, qty int) bool {
			if len(idx) == 0 {
				return true
			}
			provider := &fakeProvider{result: domain.CheckoutSessionResult{URL: "u", SessionID: "s"}}
			composer := newTestComposer(newFakeCatalog(propertyCatalog...), provider)
			cart := cartFromIndices(idx, qty)

			if _, err := composer.Compose(context.Background(), Request{Items: cart}); err != nil {
				return false
			}
			got := strings.Split(provider.lastRequest().Metadata[domain.MetadataKeySlugs], ",")
			if len(got) != len(cart) {
				return false
			}
			for i := range got {
				if got[i] != cart[i].Slug {
					return false
				}
			}
			return true
		},
		indices, quantity,
	))

	properties.Property("an unknown slug anywhere in the cart prevents the provider call", prop.ForAll(
		func(idx []int, position int) bool {
			cart := cartFromIndices(idx, 1)
			at := position % (len(cart) + 1)
			cart = append(cart[:at], append([]domain.CartItem{{Slug: "ghost", Quantity: 1}}, cart[at:]...)...)

			catalog := newFakeCatalog(propertyCatalog...)
			provider := &fakeProvider{}
			composer := newTestComposer(catalog, provider)

			_, err := composer.Compose(context.Background(), Request{Items: cart})

			var unresolved *UnresolvedProductError
			return errors.As(err, &unresolved) &&
				unresolved.Slug == "ghost" &&
				provider.calls() == 0 &&
				catalog.lookupCount() == at+1
		},
		indices, gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
