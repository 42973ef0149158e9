package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
	"github.com/jcmexdev/upi-payments/internal/pkg/cache"
)

const (
	statusCacheOp  = "status"
	statusCacheTTL = 15 * time.Minute
)

// Query answers status lookups by transaction id. Terminal records are
// immutable, so they are cached; PENDING records always hit the store.
type Query struct {
	store ports.TransactionStore
	cache cache.Cache // nil disables caching
}

// NewQuery builds the status-query service. cache may be nil.
func NewQuery(store ports.TransactionStore, c cache.Cache) *Query {
	return &Query{store: store, cache: c}
}

// Status returns the persisted record for the given id, or ports.ErrNotFound
// when no saga was ever started for it. A found record with status PENDING
// means the saga is still in flight.
func (q *Query) Status(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	if tx := q.fromCache(ctx, transactionID); tx != nil {
		return tx, nil
	}

	tx, err := q.store.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.Terminal() {
		q.toCache(ctx, tx)
	}
	return tx, nil
}

func (q *Query) fromCache(ctx context.Context, transactionID string) *entity.Transaction {
	if q.cache == nil {
		return nil
	}
	raw, err := q.cache.Get(ctx, q.cache.GenerateKey(statusCacheOp, transactionID))
	if err != nil || raw == "" {
		return nil
	}
	var tx entity.Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		slog.WarnContext(ctx, "discarding unreadable cached transaction", "transaction_id", transactionID, "error", err)
		return nil
	}
	return &tx
}

func (q *Query) toCache(ctx context.Context, tx *entity.Transaction) {
	if q.cache == nil {
		return
	}
	b, err := json.Marshal(tx)
	if err != nil {
		return
	}
	if err := q.cache.Set(ctx, q.cache.GenerateKey(statusCacheOp, tx.TransactionID), b, statusCacheTTL); err != nil {
		slog.WarnContext(ctx, "failed to cache transaction", "transaction_id", tx.TransactionID, "error", err)
	}
}
