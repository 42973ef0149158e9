// Package entity defines the Transaction record, the durable representation
// of a single payment attempt.
//
// A Transaction is created PENDING when the coordinator accepts a request and
// is mutated only by the saga goroutine that owns it. Every step the
// coordinator executes appends exactly one LogEntry, in execution order, so
// the orchestration log is a total, replayable history of the attempt. Once a
// terminal status and CompletedAt are set the record is never mutated again.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment attempt.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusReversed Status = "REVERSED"
)

// Outcome is the result of a single orchestration step.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// PaymentType is the payment rail. Informational; it does not change the
// shape of the saga.
type PaymentType string

const (
	TypeUPI            PaymentType = "UPI"
	TypeWalletTransfer PaymentType = "WALLET_TRANSFER"
)

// Party identifies one side of the payment: the core-banking account plus an
// optional virtual payment address.
type Party struct {
	AccountID string `json:"account_id"`
	VPA       string `json:"vpa,omitempty"`
}

// LogEntry is one immutable row of the orchestration log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Outcome   Outcome   `json:"outcome"`
	Details   string    `json:"details"`
}

// FailureDetails is set only when the record is FAILED. FailedAtStep names
// the step whose log entry stopped the saga, so operators can tell an
// ordinary decline from a critical finalize failure.
type FailureDetails struct {
	Reason       string `json:"reason"`
	FailedAtStep string `json:"failed_at_step"`
}

// Transaction is the durable record of one payment attempt.
type Transaction struct {
	TransactionID    string          `json:"transaction_id"`
	Type             PaymentType     `json:"type"`
	Status           Status          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Payer            Party           `json:"payer"`
	Payee            Party           `json:"payee"`
	OrchestrationLog []LogEntry      `json:"orchestration_log"`
	FailureDetails   *FailureDetails `json:"failure_details,omitempty"`

	// TraceID is the W3C trace id active when the saga started, so a stored
	// record can be joined with its distributed trace.
	TraceID string `json:"trace_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTransaction builds a PENDING record with a freshly generated id and an
// empty orchestration log. Amount, currency and parties are immutable from
// here on.
func NewTransaction(typ PaymentType, amount decimal.Decimal, currency string, payer, payee Party) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		TransactionID: uuid.NewString(),
		Type:          typ,
		Status:        StatusPending,
		Amount:        amount,
		Currency:      currency,
		Payer:         payer,
		Payee:         payee,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AppendLog records one step outcome. Entries are append-only; insertion
// order is the audit order.
func (t *Transaction) AppendLog(step string, outcome Outcome, details string) {
	now := time.Now().UTC()
	t.OrchestrationLog = append(t.OrchestrationLog, LogEntry{
		Timestamp: now,
		Step:      step,
		Outcome:   outcome,
		Details:   details,
	})
	t.UpdatedAt = now
}

// LastStep returns the step name of the most recent log entry, or "" when
// the log is empty.
func (t *Transaction) LastStep() string {
	if len(t.OrchestrationLog) == 0 {
		return ""
	}
	return t.OrchestrationLog[len(t.OrchestrationLog)-1].Step
}

// MarkCompleted moves the record to its SUCCESS terminal state.
func (t *Transaction) MarkCompleted() {
	now := time.Now().UTC()
	t.Status = StatusSuccess
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// MarkFailed moves the record to its FAILED terminal state and records why
// and at which step the saga stopped.
func (t *Transaction) MarkFailed(reason, failedAtStep string) {
	now := time.Now().UTC()
	t.Status = StatusFailed
	t.FailureDetails = &FailureDetails{Reason: reason, FailedAtStep: failedAtStep}
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// MarkReversed moves the record to its REVERSED terminal state: a step
// failed but its side effects were compensated. The orchestration log holds
// the full story, so no FailureDetails are set.
func (t *Transaction) MarkReversed() {
	now := time.Now().UTC()
	t.Status = StatusReversed
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// Terminal reports whether the record has reached a final status.
func (t *Transaction) Terminal() bool {
	return t.Status != StatusPending
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate a persisted record.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.OrchestrationLog = make([]LogEntry, len(t.OrchestrationLog))
	copy(cp.OrchestrationLog, t.OrchestrationLog)
	if t.FailureDetails != nil {
		fd := *t.FailureDetails
		cp.FailureDetails = &fd
	}
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		cp.CompletedAt = &ca
	}
	return &cp
}
