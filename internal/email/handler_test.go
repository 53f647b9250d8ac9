package email

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recordingSender struct {
	messages []Message
	err      error
}

func (s *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	s.messages = append(s.messages, msg)
	if s.err != nil {
		return "", s.err
	}
	return "msg_1", nil
}

func newTestHandler(sender Sender) *Handler {
	return NewHandler(sender, "store@example.com", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSend(t *testing.T) {
	t.Run("renders and sends download email", func(t *testing.T) {
		sender := &recordingSender{}
		h := newTestHandler(sender)

		body := `{"to":"ada@example.com","customer_name":"Ada","product_name":"Lookze Pro",
			"download_url":"https://downloads.example.com/lookze-pro.zip","order_reference":"C3D4E5F6",
			"amount":4900,"currency":"eur"}`
		req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleSend(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var resp sendResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Status != "sent" || resp.MessageID != "msg_1" {
			t.Errorf("unexpected response: %+v", resp)
		}

		if len(sender.messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(sender.messages))
		}
		msg := sender.messages[0]
		if msg.From != "store@example.com" || msg.To != "ada@example.com" {
			t.Errorf("unexpected envelope: %s -> %s", msg.From, msg.To)
		}
		if msg.Subject != "Your download for Lookze Pro (order C3D4E5F6)" {
			t.Errorf("unexpected subject: %s", msg.Subject)
		}
		for _, want := range []string{"Hi Ada,", "Lookze Pro (49.00 EUR)", "https://downloads.example.com/lookze-pro.zip", "Order reference: C3D4E5F6"} {
			if !strings.Contains(msg.Body, want) {
				t.Errorf("expected body to contain %q, got:\n%s", want, msg.Body)
			}
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		tests := map[string]string{
			"to":           `{"product_name":"Lookze Pro","download_url":"https://x"}`,
			"product_name": `{"to":"ada@example.com","download_url":"https://x"}`,
			"download_url": `{"to":"ada@example.com","product_name":"Lookze Pro"}`,
		}
		for field, body := range tests {
			t.Run(field, func(t *testing.T) {
				sender := &recordingSender{}
				rec := httptest.NewRecorder()
				newTestHandler(sender).HandleSend(rec, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body)))

				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected status 400, got %d", rec.Code)
				}
				if len(sender.messages) != 0 {
					t.Error("expected nothing to be sent")
				}
			})
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestHandler(&recordingSender{}).HandleSend(rec, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader("{")))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("sender failure", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("smtp timeout")}
		body := `{"to":"ada@example.com","product_name":"Lookze Pro","download_url":"https://x"}`
		rec := httptest.NewRecorder()
		newTestHandler(sender).HandleSend(rec, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body)))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}

func TestLogSender(t *testing.T) {
	sender := NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)), 0, 0)

	id, err := sender.Send(context.Background(), Message{To: "ada@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected a message id")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, 0)
	if _, err := slow.Send(ctx, Message{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
