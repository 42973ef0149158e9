// Package sqlite provides the durable TransactionStore.
//
// WAL mode is enabled on Open so the status endpoint can read records while
// saga goroutines are writing them. The orchestration log is embedded in the
// row as a JSON array: the record and its audit trail are one unit, written
// together after every step.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"

	// Pure-Go SQLite driver; no CGO, so it builds cleanly in Alpine images.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    -- Saga-generated id; one row per payment attempt.
    transaction_id     TEXT PRIMARY KEY,

    type               TEXT NOT NULL,
    status             TEXT NOT NULL,

    -- Money as exact decimal TEXT, never floating point.
    amount             TEXT NOT NULL,
    currency           TEXT NOT NULL,

    payer_account      TEXT NOT NULL,
    payer_vpa          TEXT NOT NULL DEFAULT '',
    payee_account      TEXT NOT NULL,
    payee_vpa          TEXT NOT NULL DEFAULT '',

    -- JSON array of log entries; append order is the audit order.
    orchestration_log  TEXT NOT NULL DEFAULT '[]',

    -- Set only when status is FAILED.
    failure_reason     TEXT,
    failed_at_step     TEXT,

    -- W3C trace id active when the saga started.
    trace_id           TEXT NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at         TEXT NOT NULL,
    updated_at         TEXT NOT NULL,
    completed_at       TEXT
);

-- Reconciliation query: "all FAILED transactions, most recent first".
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status, updated_at);
`

// Store is the SQLite implementation of ports.TransactionStore.
type Store struct {
	db *sql.DB
}

var _ ports.TransactionStore = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the record keyed on transaction_id. The saga goroutine that
// owns the record is its only writer, so the upsert never races with itself.
func (s *Store) Save(ctx context.Context, tx *entity.Transaction) error {
	logJSON, err := json.Marshal(tx.OrchestrationLog)
	if err != nil {
		return fmt.Errorf("sqlite: encode orchestration log for %q: %w", tx.TransactionID, err)
	}

	var failureReason, failedAtStep any
	if tx.FailureDetails != nil {
		failureReason = tx.FailureDetails.Reason
		failedAtStep = tx.FailureDetails.FailedAtStep
	}

	var completedAt any
	if tx.CompletedAt != nil {
		completedAt = formatRFC3339(*tx.CompletedAt)
	}

	const q = `
		INSERT INTO transactions
			(transaction_id, type, status, amount, currency,
			 payer_account, payer_vpa, payee_account, payee_vpa,
			 orchestration_log, failure_reason, failed_at_step, trace_id,
			 created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			status            = excluded.status,
			orchestration_log = excluded.orchestration_log,
			failure_reason    = excluded.failure_reason,
			failed_at_step    = excluded.failed_at_step,
			updated_at        = excluded.updated_at,
			completed_at      = excluded.completed_at`

	_, err = s.db.ExecContext(ctx, q,
		tx.TransactionID,
		string(tx.Type),
		string(tx.Status),
		tx.Amount.String(),
		tx.Currency,
		tx.Payer.AccountID,
		tx.Payer.VPA,
		tx.Payee.AccountID,
		tx.Payee.VPA,
		string(logJSON),
		failureReason,
		failedAtStep,
		tx.TraceID,
		formatRFC3339(tx.CreatedAt),
		formatRFC3339(tx.UpdatedAt),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save transaction %q: %w", tx.TransactionID, err)
	}
	return nil
}

// FindByID loads one record. Returns ports.ErrNotFound for unknown ids.
func (s *Store) FindByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	const q = `
		SELECT transaction_id, type, status, amount, currency,
		       payer_account, payer_vpa, payee_account, payee_vpa,
		       orchestration_log, failure_reason, failed_at_step, trace_id,
		       created_at, updated_at, completed_at
		FROM   transactions
		WHERE  transaction_id = ?`

	row := s.db.QueryRowContext(ctx, q, transactionID)

	var (
		tx            entity.Transaction
		typ, status   string
		amount        string
		logJSON       string
		failureReason sql.NullString
		failedAtStep  sql.NullString
		createdAt     string
		updatedAt     string
		completedAt   sql.NullString
	)
	err := row.Scan(
		&tx.TransactionID,
		&typ,
		&status,
		&amount,
		&tx.Currency,
		&tx.Payer.AccountID,
		&tx.Payer.VPA,
		&tx.Payee.AccountID,
		&tx.Payee.VPA,
		&logJSON,
		&failureReason,
		&failedAtStep,
		&tx.TraceID,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find transaction %q: %w", transactionID, err)
	}

	tx.Type = entity.PaymentType(typ)
	tx.Status = entity.Status(status)

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse amount %q: %w", amount, err)
	}

	if err := json.Unmarshal([]byte(logJSON), &tx.OrchestrationLog); err != nil {
		return nil, fmt.Errorf("sqlite: decode orchestration log for %q: %w", transactionID, err)
	}

	if failureReason.Valid || failedAtStep.Valid {
		tx.FailureDetails = &entity.FailureDetails{
			Reason:       failureReason.String,
			FailedAtStep: failedAtStep.String,
		}
	}

	if tx.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if tx.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseRFC3339(completedAt.String)
		if err != nil {
			return nil, err
		}
		tx.CompletedAt = &t
	}

	return &tx, nil
}
