// Package events publishes terminal payment outcomes so downstream systems
// (reconciliation, notifications, reporting) can react without polling the
// status endpoint.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// CompletedEvent is the JSON payload emitted once per transaction when it
// reaches a terminal status.
type CompletedEvent struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PayerAccount  string          `json:"payer_account"`
	PayeeAccount  string          `json:"payee_account"`
	FailedAtStep  string          `json:"failed_at_step,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
}

func newCompletedEvent(tx *entity.Transaction) CompletedEvent {
	ev := CompletedEvent{
		TransactionID: tx.TransactionID,
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		PayerAccount:  tx.Payer.AccountID,
		PayeeAccount:  tx.Payee.AccountID,
	}
	if tx.FailureDetails != nil {
		ev.FailedAtStep = tx.FailureDetails.FailedAtStep
		ev.Reason = tx.FailureDetails.Reason
	}
	if tx.CompletedAt != nil {
		ev.CompletedAt = *tx.CompletedAt
	}
	return ev
}

// Nop discards events. Wired when no broker is configured.
type Nop struct{}

var _ ports.EventPublisher = Nop{}

func (Nop) PublishCompleted(ctx context.Context, tx *entity.Transaction) error {
	return nil
}
