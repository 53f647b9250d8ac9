package email

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type Handler struct {
	sender Sender
	from   string
	logger *slog.Logger
}

func NewHandler(sender Sender, from string, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		from:   from,
		logger: logger,
	}
}

type sendRequest struct {
	To             string `json:"to"`
	CustomerName   string `json:"customer_name"`
	ProductName    string `json:"product_name"`
	DownloadURL    string `json:"download_url"`
	OrderReference string `json:"order_reference"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case strings.TrimSpace(req.To) == "":
		h.writeError(w, http.StatusBadRequest, "to is required")
		return
	case strings.TrimSpace(req.ProductName) == "":
		h.writeError(w, http.StatusBadRequest, "product_name is required")
		return
	case strings.TrimSpace(req.DownloadURL) == "":
		h.writeError(w, http.StatusBadRequest, "download_url is required")
		return
	}

	msg, err := renderDownloadEmail(h.from, req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render email", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := h.sender.Send(r.Context(), msg)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to send email", "error", err, "to", req.To)
		h.writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent", MessageID: id})
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
