// Package ports declares the interfaces the saga coordinator depends on.
// The coordinator is written against these abstractions, not against any
// concrete ledger, switch, store or broker, so every collaborator can be
// swapped for a deterministic variant in tests.
package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
)

// ErrNotFound is returned by TransactionStore.FindByID for unknown ids, so
// callers can distinguish "no such transaction" from "found but PENDING".
var ErrNotFound = errors.New("transaction not found")

// HoldResult is the ledger's answer to a funds-hold request. Granted=false
// is a business decline (insufficient funds or ledger unavailability), not a
// transport error.
type HoldResult struct {
	Granted bool
	Reason  string
}

// DebitResult is the ledger's answer to finalizing a previously granted
// hold. Committed=false after a confirmed switch result is a critical
// condition requiring manual reconciliation.
type DebitResult struct {
	Committed bool
}

// SwitchResult is the clearing switch's confirm/decline answer.
type SwitchResult struct {
	Confirmed bool
	Message   string
}

// LedgerClient talks to the core-banking adapter.
type LedgerClient interface {
	// RequestHold asks the ledger to earmark funds on the payer account.
	RequestHold(ctx context.Context, accountID string, amount decimal.Decimal) (HoldResult, error)

	// FinalizeDebit converts a granted hold into a permanent debit. Only
	// called after a granted hold and a confirmed switch result.
	FinalizeDebit(ctx context.Context, accountID string, amount decimal.Decimal) (DebitResult, error)

	// ReleaseHold undoes a granted hold. Compensation path only.
	ReleaseHold(ctx context.Context, accountID string, amount decimal.Decimal) error
}

// NetworkClient submits a transaction to the external clearing switch and
// blocks until a confirm/decline is known. The call is latency-bearing and
// must honour ctx cancellation; a decline is a normal outcome, not an error.
type NetworkClient interface {
	Submit(ctx context.Context, transactionID string) (SwitchResult, error)
}

// TransactionStore durably persists one record per transaction id. Save is
// an upsert keyed on the id; uniqueness is enforced by the store. Writes for
// a given id are only ever issued by the saga goroutine that owns it.
type TransactionStore interface {
	Save(ctx context.Context, tx *entity.Transaction) error
	FindByID(ctx context.Context, transactionID string) (*entity.Transaction, error)
}

// EventPublisher announces terminal payment outcomes to downstream
// consumers. Publish failures must never change a saga's outcome.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, tx *entity.Transaction) error
}
