package shop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joao-fontenele/dashboard-storefront/internal/cart"
	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

const helpText = `commands:
  products                 list the catalog
  add <slug> [qty]         add a product to the cart
  set <slug> <qty>         change a quantity, 0 removes the product
  remove <slug>            remove a product from the cart
  cart                     show the cart
  checkout                 start payment for the cart
  success <session_id>     confirm a completed payment
  quit                     exit
`

// Shell is a line-oriented shopping session. The checkout idempotency key is kept
// until the cart changes, so retrying checkout reuses the same provider session.
type Shell struct {
	client      *Client
	cart        *cart.Cart
	out         io.Writer
	checkoutKey string
	newKey      func() string
}

func NewShell(client *Client, out io.Writer) *Shell {
	return &Shell{
		client: client,
		cart:   cart.New(),
		out:    out,
		newKey: func() string { return uuid.New().String() },
	}
}

// Run reads commands from in until quit or EOF.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		quit, err := s.Exec(ctx, scanner.Text())
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
		s.prompt()
	}
	return scanner.Err()
}

// Exec runs one command line. quit reports whether the session should end.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "products":
		return false, s.products(ctx)
	case "add":
		return false, s.add(args)
	case "set":
		return false, s.set(args)
	case "remove":
		if len(args) != 1 {
			return false, errors.New("usage: remove <slug>")
		}
		if err := s.cart.Remove(args[0]); err != nil {
			return false, err
		}
		s.checkoutKey = ""
		s.printf("removed %s\n", args[0])
		return false, nil
	case "cart":
		s.showCart()
		return false, nil
	case "checkout":
		return false, s.checkout(ctx)
	case "success":
		if len(args) != 1 {
			return false, errors.New("usage: success <session_id>")
		}
		return false, s.success(ctx, args[0])
	case "help":
		s.printf("%s", helpText)
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (s *Shell) products(ctx context.Context) error {
	products, err := s.client.Products(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		s.printf("%-20s %-28s %s\n", p.Slug, p.Name, domain.FormatPrice(p.Price, p.Currency))
	}
	return nil
}

func (s *Shell) add(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: add <slug> [qty]")
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		qty = n
	}
	if err := s.cart.Add(args[0], qty); err != nil {
		return err
	}
	s.checkoutKey = ""
	s.printf("added %d x %s\n", qty, args[0])
	return nil
}

func (s *Shell) set(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set <slug> <qty>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	if err := s.cart.SetQuantity(args[0], qty); err != nil {
		return err
	}
	s.checkoutKey = ""
	if qty == 0 {
		s.printf("removed %s\n", args[0])
		return nil
	}
	s.printf("set %s to %d\n", args[0], qty)
	return nil
}

func (s *Shell) showCart() {
	if s.cart.Len() == 0 {
		s.printf("cart is empty\n")
		return
	}
	for _, item := range s.cart.Items() {
		s.printf("%3d x %s\n", item.Quantity, item.Slug)
	}
}

func (s *Shell) checkout(ctx context.Context) error {
	if s.checkoutKey == "" {
		s.checkoutKey = s.newKey()
	}
	result, err := s.client.Checkout(ctx, s.cart.Items(), s.checkoutKey)
	if err != nil {
		return err
	}
	s.printf("pay here: %s\nsession: %s\n", result.URL, result.SessionID)
	return nil
}

func (s *Shell) success(ctx context.Context, sessionID string) error {
	success, err := s.client.ConfirmSuccess(ctx, sessionID)
	if err != nil {
		return err
	}
	if success.ClearCart && s.cart.ClearOnSuccess(success.SessionID) {
		s.checkoutKey = ""
	}
	s.printf("thank you! order reference %s\n", success.Reference)
	return nil
}

func (s *Shell) prompt() {
	s.printf("> ")
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
