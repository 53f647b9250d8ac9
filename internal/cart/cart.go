// Package cart holds the shopper's in-memory cart on the client side.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joao-fontenele/dashboard-storefront/internal/checkout"
	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

var (
	ErrUnknownItem = errors.New("item not in cart")
	ErrEmptySlug   = errors.New("slug is required")
)

// Cart keeps items in the order they were first added. It is not safe for
// concurrent use.
type Cart struct {
	items []domain.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add puts qty more of slug in the cart.
func (c *Cart) Add(slug string, qty int) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ErrEmptySlug
	}
	if qty < checkout.MinQuantity {
		return fmt.Errorf("quantity must be at least %d", checkout.MinQuantity)
	}
	if qty > checkout.MaxQuantity {
		return fmt.Errorf("quantity must be at most %d", checkout.MaxQuantity)
	}

	i := c.index(slug)
	if i < 0 {
		c.items = append(c.items, domain.CartItem{Slug: slug, Quantity: qty})
		return nil
	}
	if qty > checkout.MaxQuantity-c.items[i].Quantity {
		return fmt.Errorf("quantity must be at most %d", checkout.MaxQuantity)
	}
	c.items[i].Quantity += qty
	return nil
}

// SetQuantity replaces the quantity of slug. Zero removes it.
func (c *Cart) SetQuantity(slug string, qty int) error {
	i := c.index(strings.TrimSpace(slug))
	if i < 0 {
		return ErrUnknownItem
	}
	if qty == 0 {
		c.removeAt(i)
		return nil
	}
	if qty < checkout.MinQuantity {
		return fmt.Errorf("quantity must be at least %d", checkout.MinQuantity)
	}
	if qty > checkout.MaxQuantity {
		return fmt.Errorf("quantity must be at most %d", checkout.MaxQuantity)
	}
	c.items[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(slug string) error {
	i := c.index(strings.TrimSpace(slug))
	if i < 0 {
		return ErrUnknownItem
	}
	c.removeAt(i)
	return nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// ClearOnSuccess empties the cart after a completed checkout. Without a session id
// nothing was paid for, so the cart is kept.
func (c *Cart) ClearOnSuccess(sessionID string) bool {
	if strings.TrimSpace(sessionID) == "" {
		return false
	}
	c.items = nil
	return true
}

func (c *Cart) index(slug string) int {
	for i, item := range c.items {
		if item.Slug == slug {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}
