package domain

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPaid              PurchaseStatus = "paid"
	PurchaseStatusFulfilled         PurchaseStatus = "fulfilled"
	PurchaseStatusFulfillmentFailed PurchaseStatus = "fulfillment_failed"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseStatusPaid, PurchaseStatusFulfilled, PurchaseStatusFulfillmentFailed:
		return true
	}
	return false
}

// CompletedCheckout is the subset of a paid provider session the storefront keeps.
type CompletedCheckout struct {
	SessionID     string
	CustomerName  string
	CustomerEmail string
	Slugs         []string
	AmountTotal   int64
	Currency      string
}

type Purchase struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Slugs         []string       `json:"slugs"`
	AmountTotal   int64          `json:"amount_total"`
	Currency      string         `json:"currency"`
	Status        PurchaseStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}
