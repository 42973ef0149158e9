// Package orchestrator drives the payment saga: hold funds at the ledger,
// submit to the NPCI switch, finalize the debit, and persist an ordered
// audit log of every step plus the terminal outcome.
//
// Each payment request runs in its own goroutine and owns its Transaction
// record exclusively until the record is terminal. Steps within one saga are
// strictly sequential; the record is persisted after every appended log
// entry, so the store always reflects how far the saga got.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

const defaultNetworkTimeout = 10 * time.Second

// Config tunes the coordinator's failure policy.
type Config struct {
	// NetworkTimeout bounds the switch submission, the long pole of the
	// saga. A timeout is treated exactly like a decline.
	NetworkTimeout time.Duration

	// CompensateOnNetworkDecline releases the outstanding balance hold when
	// the switch declines, marking the record REVERSED instead of FAILED.
	// Off by default: the shipped policy leaves the hold outstanding, which
	// matches the upstream core-banking contract (see DESIGN.md).
	CompensateOnNetworkDecline bool
}

// Request is a validated payment instruction. Validation happens at the
// transport layer; by the time a Request reaches the coordinator a record
// will be created no matter how the saga ends.
type Request struct {
	Type     entity.PaymentType
	Amount   decimal.Decimal
	Currency string
	Payer    entity.Party
	Payee    entity.Party
}

// Coordinator sequences the payment steps and is the only component that
// decides a transaction's terminal state.
type Coordinator struct {
	ledger    ports.LedgerClient
	network   ports.NetworkClient
	store     ports.TransactionStore
	publisher ports.EventPublisher
	cfg       Config
}

// New wires a Coordinator. publisher may be nil when no broker is
// configured.
func New(ledger ports.LedgerClient, network ports.NetworkClient, store ports.TransactionStore, publisher ports.EventPublisher, cfg Config) *Coordinator {
	if cfg.NetworkTimeout <= 0 {
		cfg.NetworkTimeout = defaultNetworkTimeout
	}
	return &Coordinator{
		ledger:    ledger,
		network:   network,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Process runs the full saga for one payment request and returns the
// terminal Transaction record. It never returns an error: every collaborator
// failure is captured as a step outcome in the orchestration log and folded
// into the record's status, which is the caller-facing contract.
func (c *Coordinator) Process(ctx context.Context, req Request) *entity.Transaction {
	tx := entity.NewTransaction(req.Type, req.Amount, req.Currency, req.Payer, req.Payee)
	tx.TraceID = traceIDFrom(ctx)

	slog.InfoContext(ctx, "payment saga started",
		"transaction_id", tx.TransactionID,
		"type", tx.Type,
		"amount", tx.Amount,
		"currency", tx.Currency,
	)

	tx.AppendLog(StepPaymentInitiated, entity.OutcomeSuccess, "payment accepted for orchestration")
	c.persist(ctx, tx)

	for _, st := range c.pipeline() {
		details, err := st.run(ctx, tx)
		if err != nil {
			c.fail(ctx, tx, st.name, err)
			return tx
		}
		tx.AppendLog(st.name, entity.OutcomeSuccess, details)
		c.persist(ctx, tx)
	}

	tx.AppendLog(StepPaymentCompleted, entity.OutcomeSuccess, "debit finalized and confirmed by switch")
	tx.MarkCompleted()
	c.persist(ctx, tx)
	c.publish(ctx, tx)

	slog.InfoContext(ctx, "payment saga completed", "transaction_id", tx.TransactionID)
	return tx
}

// fail records the failing step's outcome as the terminal log entry and
// settles the record. The failing step's entry carries the error message, so
// the log alone explains where and why the saga stopped.
func (c *Coordinator) fail(ctx context.Context, tx *entity.Transaction, stepName string, cause error) {
	tx.AppendLog(stepName, entity.OutcomeFailure, cause.Error())

	switch stepName {
	case StepFinalizeDebit:
		// The switch already confirmed; funds state is now inconsistent and
		// no inline retry is safe. Flag for manual reconciliation.
		slog.ErrorContext(ctx, "finalize debit failed after switch confirmation, manual reconciliation required",
			"transaction_id", tx.TransactionID,
			"account_id", tx.Payer.AccountID,
			"error", cause,
		)
	case StepNPCIConfirmation:
		if c.cfg.CompensateOnNetworkDecline {
			c.compensateHold(ctx, tx, cause)
			return
		}
		// A granted hold is still outstanding on the payer account; release
		// is delegated to the ledger's hold-expiry process.
		slog.WarnContext(ctx, "switch declined with balance hold outstanding",
			"transaction_id", tx.TransactionID,
			"account_id", tx.Payer.AccountID,
		)
	}

	tx.MarkFailed(cause.Error(), stepName)
	c.persist(ctx, tx)
	c.publish(ctx, tx)

	slog.InfoContext(ctx, "payment saga failed",
		"transaction_id", tx.TransactionID,
		"failed_at_step", stepName,
		"reason", cause.Error(),
	)
}

// compensateHold releases the balance hold after a switch decline. A
// successful release settles the record as REVERSED; a failed release falls
// back to FAILED with both outcomes in the log.
func (c *Coordinator) compensateHold(ctx context.Context, tx *entity.Transaction, cause error) {
	if err := c.ledger.ReleaseHold(ctx, tx.Payer.AccountID, tx.Amount); err != nil {
		slog.ErrorContext(ctx, "failed to release balance hold",
			"transaction_id", tx.TransactionID,
			"account_id", tx.Payer.AccountID,
			"error", err,
		)
		tx.AppendLog(StepReleaseHold, entity.OutcomeFailure, err.Error())
		tx.MarkFailed(cause.Error(), StepNPCIConfirmation)
		c.persist(ctx, tx)
		c.publish(ctx, tx)
		return
	}

	tx.AppendLog(StepReleaseHold, entity.OutcomeSuccess, "balance hold released")
	tx.MarkReversed()
	c.persist(ctx, tx)
	c.publish(ctx, tx)

	slog.InfoContext(ctx, "payment reversed after switch decline",
		"transaction_id", tx.TransactionID,
		"reason", cause.Error(),
	)
}

// persist writes the record after each completed step. A store failure is an
// infrastructure fault, not a saga outcome: it is logged and the saga keeps
// its in-memory record authoritative.
func (c *Coordinator) persist(ctx context.Context, tx *entity.Transaction) {
	if err := c.store.Save(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "failed to persist transaction record",
			"transaction_id", tx.TransactionID,
			"error", err,
		)
	}
}

func (c *Coordinator) publish(ctx context.Context, tx *entity.Transaction) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishCompleted(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "failed to publish transaction event",
			"transaction_id", tx.TransactionID,
			"error", err,
		)
	}
}

// traceIDFrom extracts the active W3C trace id, if any, so the stored record
// can be joined with its distributed trace.
func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
