package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/upi-payments/internal/orchestrator"
	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// Handler exposes the payments API: submit a payment and query its status.
type Handler struct {
	coordinator *orchestrator.Coordinator
	query       *orchestrator.Query
}

func NewHandler(c *orchestrator.Coordinator, q *orchestrator.Query) *Handler {
	return &Handler{coordinator: c, query: q}
}

// ProcessPayment validates the request, runs the saga synchronously, and
// returns the full record. Invalid input is rejected before any record is
// created; once the saga starts, the response status code only signals the
// outcome — the body always carries the record.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	typ, msg := validatePaymentRequest(&req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	slog.InfoContext(r.Context(), "processing payment request",
		"payer_account", req.Payer.AccountID,
		"payee_account", req.Payee.AccountID,
		"amount", req.Amount,
		"currency", req.Currency,
	)

	tx := h.coordinator.Process(r.Context(), orchestrator.Request{
		Type:     typ,
		Amount:   req.Amount,
		Currency: req.Currency,
		Payer:    entity.Party{AccountID: req.Payer.AccountID, VPA: req.Payer.VPA},
		Payee:    entity.Party{AccountID: req.Payee.AccountID, VPA: req.Payee.VPA},
	})

	if tx.Status == entity.StatusSuccess {
		writeJSON(w, http.StatusCreated, PaymentResponse{
			Success: true,
			Data:    mapTransactionToResponse(tx),
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, PaymentResponse{
		Success: false,
		Message: "payment processing failed",
		Data:    mapTransactionToResponse(tx),
	})
}

// GetPaymentStatus looks up a transaction by id. 404 means no saga was ever
// started for that id; a 200 with status PENDING means it is still in
// flight.
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	tx, err := h.query.Status(r.Context(), transactionID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "status lookup failed", "transaction_id", transactionID, "error", err)
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, PaymentResponse{
		Success: true,
		Status:  string(tx.Status),
		Data:    mapTransactionToResponse(tx),
	})
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Service:   "payments-service",
		Status:    "running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// validatePaymentRequest returns the resolved payment type and an empty
// message, or a rejection message. Rejections happen before any record is
// created.
func validatePaymentRequest(req *PaymentRequest) (entity.PaymentType, string) {
	if !req.Amount.IsPositive() {
		return "", "amount must be a positive number"
	}
	if req.Currency == "" {
		return "", "currency is required"
	}
	if req.Payer.AccountID == "" || req.Payee.AccountID == "" {
		return "", "payer.accountId and payee.accountId are required"
	}

	switch entity.PaymentType(req.Type) {
	case entity.TypeUPI, entity.TypeWalletTransfer:
		return entity.PaymentType(req.Type), ""
	case "":
		return entity.TypeUPI, ""
	default:
		return "", "type must be UPI or WALLET_TRANSFER"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, PaymentResponse{Success: false, Message: msg})
}
