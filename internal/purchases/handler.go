package purchases

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
	"github.com/joao-fontenele/dashboard-storefront/internal/payment"
)

const maxWebhookBytes = 64 << 10

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	repo          *Repository
	publisher     Publisher
	webhookSecret string
	logger        *slog.Logger
}

// NewHandler wires purchase intake. publisher may be nil, in which case purchases are
// recorded but no fulfillment event is emitted.
func NewHandler(repo *Repository, publisher Publisher, webhookSecret string, logger *slog.Logger) *Handler {
	return &Handler{
		repo:          repo,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checkout, ok, err := payment.ParseCompletedCheckout(payload, r.Header.Get(payment.SignatureHeader), h.webhookSecret)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.WarnContext(r.Context(), "rejected webhook with invalid signature", "error", err)
			h.writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to parse webhook", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !ok {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	purchase, created, err := h.repo.Create(r.Context(), checkout)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to record purchase", "error", err, "session_id", checkout.SessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !created {
		h.redeliver(w, r, checkout.SessionID)
		return
	}

	if err := h.publishCompleted(r.Context(), purchase); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to publish purchase completed event", "error", err, "session_id", purchase.SessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "purchase recorded", "purchase_id", purchase.ID, "session_id", purchase.SessionID, "items", len(purchase.Slugs))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// redeliver answers a repeated delivery. A purchase still in paid may never have
// reached the broker, so its event is emitted again and the worker sorts out repeats.
func (h *Handler) redeliver(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.publisher == nil {
		h.logger.InfoContext(r.Context(), "duplicate webhook delivery", "session_id", sessionID)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	purchase, err := h.repo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load purchase", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if purchase == nil || purchase.Status != domain.PurchaseStatusPaid {
		h.logger.InfoContext(r.Context(), "duplicate webhook delivery", "session_id", sessionID)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if err := h.publishCompleted(r.Context(), purchase); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to republish purchase completed event", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "republished purchase completed event", "purchase_id", purchase.ID, "session_id", sessionID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "republished"})
}

func (h *Handler) publishCompleted(ctx context.Context, purchase *domain.Purchase) error {
	if h.publisher == nil {
		return nil
	}
	event := domain.PurchaseCompletedEvent{
		PurchaseID:    purchase.ID,
		SessionID:     purchase.SessionID,
		CustomerName:  purchase.CustomerName,
		CustomerEmail: purchase.CustomerEmail,
		Slugs:         purchase.Slugs,
		Timestamp:     purchase.CreatedAt,
	}
	return h.publisher.Publish(ctx, purchase.SessionID, event)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	purchase, err := h.repo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get purchase", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if purchase == nil {
		h.writeError(w, http.StatusNotFound, "purchase not found")
		return
	}

	h.writeJSON(w, http.StatusOK, purchase)
}

type updateStatusRequest struct {
	Status domain.PurchaseStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Status.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	purchase, err := h.repo.UpdateStatus(r.Context(), sessionID, req.Status)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to update purchase status", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if purchase == nil {
		h.writeError(w, http.StatusNotFound, "purchase not found")
		return
	}

	h.logger.InfoContext(r.Context(), "purchase status updated", "session_id", sessionID, "status", purchase.Status)
	h.writeJSON(w, http.StatusOK, purchase)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
