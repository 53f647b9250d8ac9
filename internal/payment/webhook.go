package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

const SignatureHeader = "Stripe-Signature"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ParseCompletedCheckout verifies a Stripe webhook delivery and extracts the paid checkout
// it describes. ok is false for events that carry no completed, paid session.
func ParseCompletedCheckout(payload []byte, signature, secret string) (checkout domain.CompletedCheckout, ok bool, err error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.CompletedCheckout{}, false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != "checkout.session.completed" || event.Data == nil {
		return domain.CompletedCheckout{}, false, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return domain.CompletedCheckout{}, false, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return domain.CompletedCheckout{}, false, nil
	}

	checkout = domain.CompletedCheckout{
		SessionID:   s.ID,
		Slugs:       splitSlugs(s.Metadata[domain.MetadataKeySlugs]),
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
	}
	if s.CustomerDetails != nil {
		checkout.CustomerName = s.CustomerDetails.Name
		checkout.CustomerEmail = s.CustomerDetails.Email
	}

	return checkout, true, nil
}

func splitSlugs(joined string) []string {
	var slugs []string
	for _, slug := range strings.Split(joined, domain.SlugSeparator) {
		if slug = strings.TrimSpace(slug); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}
