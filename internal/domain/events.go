package domain

import "time"

type PurchaseCompletedEvent struct {
	PurchaseID    string    `json:"purchase_id"`
	SessionID     string    `json:"session_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Slugs         []string  `json:"slugs"`
	Timestamp     time.Time `json:"timestamp"`
}
