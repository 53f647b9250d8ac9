package domain

import "strings"

const (
	PaymentModeOneTime   = "payment"
	PaymentMethodCard    = "card"
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
	MetadataKeySlugs     = "slugs"
	SlugSeparator        = ","
	MetadataKeyProductID = "product_id"
	MetadataKeySlug      = "slug"
	orderReferenceLength = 8
)

type LineItem struct {
	Currency           string            `json:"currency"`
	ProductName        string            `json:"product_name"`
	ProductDescription string            `json:"product_description"`
	Metadata           map[string]string `json:"metadata"`
	UnitAmount         int64             `json:"unit_amount"`
	Quantity           int64             `json:"quantity"`
}

// CheckoutSessionRequest is everything the payment provider needs to open one hosted session.
type CheckoutSessionRequest struct {
	Mode               string
	PaymentMethodTypes []string
	LineItems          []LineItem
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
	Locale             string
	IdempotencyKey     string
}

type CheckoutSessionResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// OrderReference is the short, customer-facing reference shown on the success page and in
// confirmation emails: the upper-cased trailing characters of the session id.
func OrderReference(sessionID string) string {
	if len(sessionID) > orderReferenceLength {
		sessionID = sessionID[len(sessionID)-orderReferenceLength:]
	}
	return strings.ToUpper(sessionID)
}
