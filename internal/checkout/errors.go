package checkout

import (
	"errors"
	"fmt"
)

var ErrEmptyCart = errors.New("cart is empty")

type InvalidItemError struct {
	Index  int
	Slug   string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid cart item %d (%q): %s", e.Index, e.Slug, e.Reason)
}

type UnresolvedProductError struct {
	Slug string
}

func (e *UnresolvedProductError) Error() string {
	return fmt.Sprintf("product not found: %s", e.Slug)
}

// ProviderError wraps any failure of the session-creation call, timeouts included.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "payment provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
