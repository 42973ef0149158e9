package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
	"github.com/jcmexdev/upi-payments/internal/store/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTransaction() *entity.Transaction {
	tx := entity.NewTransaction(
		entity.TypeUPI,
		decimal.RequireFromString("500.25"),
		"USD",
		entity.Party{AccountID: "ACC001", VPA: "payer@upi"},
		entity.Party{AccountID: "ACC002"},
	)
	tx.TraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	tx.AppendLog("PaymentInitiated", entity.OutcomeSuccess, "payment accepted for orchestration")
	return tx
}

func TestSaveAndFindByID_RoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tx := sampleTransaction()
	require.NoError(t, s.Save(ctx, tx))

	got, err := s.FindByID(ctx, tx.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, tx.TransactionID, got.TransactionID)
	assert.Equal(t, entity.TypeUPI, got.Type)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.True(t, got.Amount.Equal(tx.Amount))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, tx.Payer, got.Payer)
	assert.Equal(t, tx.Payee, got.Payee)
	assert.Equal(t, tx.TraceID, got.TraceID)
	assert.Nil(t, got.FailureDetails)
	assert.Nil(t, got.CompletedAt)

	require.Len(t, got.OrchestrationLog, 1)
	assert.Equal(t, "PaymentInitiated", got.OrchestrationLog[0].Step)
	assert.Equal(t, entity.OutcomeSuccess, got.OrchestrationLog[0].Outcome)

	assert.True(t, got.CreatedAt.Equal(tx.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(tx.UpdatedAt))
}

func TestSave_UpsertsOnTransactionID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tx := sampleTransaction()
	require.NoError(t, s.Save(ctx, tx))

	// Saga progresses: more log entries, then a terminal failure.
	tx.AppendLog("BalanceHold", entity.OutcomeSuccess, "hold granted")
	tx.AppendLog("NPCIConfirmation", entity.OutcomeFailure, "transaction declined by NPCI switch")
	tx.MarkFailed("transaction declined by NPCI switch", "NPCIConfirmation")
	require.NoError(t, s.Save(ctx, tx))

	got, err := s.FindByID(ctx, tx.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFailed, got.Status)
	assert.Len(t, got.OrchestrationLog, 3)

	require.NotNil(t, got.FailureDetails)
	assert.Equal(t, "NPCIConfirmation", got.FailureDetails.FailedAtStep)
	assert.Equal(t, "transaction declined by NPCI switch", got.FailureDetails.Reason)

	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(*tx.CompletedAt))
}

func TestFindByID_NotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.FindByID(context.Background(), "unknown-id")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSave_CompletedTransaction(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tx := sampleTransaction()
	tx.AppendLog("BalanceHold", entity.OutcomeSuccess, "hold granted")
	tx.AppendLog("NPCIConfirmation", entity.OutcomeSuccess, "transaction confirmed by NPCI")
	tx.AppendLog("FinalizeDebit", entity.OutcomeSuccess, "debit committed")
	tx.AppendLog("PaymentCompleted", entity.OutcomeSuccess, "debit finalized and confirmed by switch")
	tx.MarkCompleted()
	require.NoError(t, s.Save(ctx, tx))

	got, err := s.FindByID(ctx, tx.TransactionID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusSuccess, got.Status)
	assert.Len(t, got.OrchestrationLog, 5)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.CreatedAt))

	// Log timestamps survive the round trip in order.
	for i := 1; i < len(got.OrchestrationLog); i++ {
		assert.False(t, got.OrchestrationLog[i].Timestamp.Before(got.OrchestrationLog[i-1].Timestamp))
	}
}

func TestConcurrentWritersOnDistinctIDs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	const n = 10
	errs := make(chan error, n)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		tx := sampleTransaction()
		ids[i] = tx.TransactionID
		go func(tx *entity.Transaction) {
			errs <- s.Save(ctx, tx)
		}(tx)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	deadline := time.Now().Add(time.Second)
	for _, id := range ids {
		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.TransactionID)
		require.True(t, time.Now().Before(deadline), "lookup took too long")
	}
}
