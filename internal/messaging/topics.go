package messaging

const (
	TopicPurchaseCompleted = "purchase.completed"

	GroupFulfillment = "fulfillment-worker"

	// EventTypeHeader carries the event name so consumers can skip payloads they do not know.
	EventTypeHeader = "event-type"

	EventPurchaseCompleted = "purchase.completed.v1"
)
