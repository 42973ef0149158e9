package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
)

// Wire format is camelCase, matching the public payments API contract.

type PaymentRequest struct {
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Payer    PartyDTO        `json:"payer"`
	Payee    PartyDTO        `json:"payee"`
}

type PartyDTO struct {
	AccountID string `json:"accountId"`
	VPA       string `json:"vpa,omitempty"`
}

type LogEntryDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Details   string    `json:"details"`
}

type FailureDetailsDTO struct {
	Reason       string `json:"reason"`
	FailedAtStep string `json:"failedAtStep"`
}

type TransactionResponse struct {
	TransactionID    string             `json:"transactionId"`
	Type             string             `json:"type"`
	Status           string             `json:"status"`
	Amount           decimal.Decimal    `json:"amount"`
	Currency         string             `json:"currency"`
	Payer            PartyDTO           `json:"payer"`
	Payee            PartyDTO           `json:"payee"`
	OrchestrationLog []LogEntryDTO      `json:"orchestrationLog"`
	FailureDetails   *FailureDetailsDTO `json:"failureDetails,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
}

// PaymentResponse is the envelope of every payments endpoint: Success tells
// the caller how to read it, Data carries the full record including the
// orchestration log so failures need no second lookup.
type PaymentResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Status  string               `json:"status,omitempty"`
	Data    *TransactionResponse `json:"data,omitempty"`
}

type HealthResponse struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func mapTransactionToResponse(tx *entity.Transaction) *TransactionResponse {
	log := make([]LogEntryDTO, len(tx.OrchestrationLog))
	for i, e := range tx.OrchestrationLog {
		log[i] = LogEntryDTO{
			Timestamp: e.Timestamp,
			Step:      e.Step,
			Status:    string(e.Outcome),
			Details:   e.Details,
		}
	}

	res := &TransactionResponse{
		TransactionID:    tx.TransactionID,
		Type:             string(tx.Type),
		Status:           string(tx.Status),
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		Payer:            PartyDTO{AccountID: tx.Payer.AccountID, VPA: tx.Payer.VPA},
		Payee:            PartyDTO{AccountID: tx.Payee.AccountID, VPA: tx.Payee.VPA},
		OrchestrationLog: log,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		CompletedAt:      tx.CompletedAt,
	}
	if tx.FailureDetails != nil {
		res.FailureDetails = &FailureDetailsDTO{
			Reason:       tx.FailureDetails.Reason,
			FailedAtStep: tx.FailureDetails.FailedAtStep,
		}
	}
	return res
}
