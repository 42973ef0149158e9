// Package ledger provides the core-banking collaborators of the payment
// saga: an HTTP adapter for the real core-banking service and an in-memory
// ledger for local development and tests.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// InMemory keeps account balances and outstanding holds behind a mutex.
// Available balance is balance minus held, so concurrent sagas cannot
// double-spend an account.
type InMemory struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	held     map[string]decimal.Decimal
}

var _ ports.LedgerClient = (*InMemory)(nil)

// NewInMemory seeds the ledger with the given opening balances.
func NewInMemory(balances map[string]decimal.Decimal) *InMemory {
	seeded := make(map[string]decimal.Decimal, len(balances))
	for id, b := range balances {
		seeded[id] = b
	}
	return &InMemory{
		balances: seeded,
		held:     make(map[string]decimal.Decimal),
	}
}

func (l *InMemory) RequestHold(ctx context.Context, accountID string, amount decimal.Decimal) (ports.HoldResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[accountID]
	if !ok {
		return ports.HoldResult{Reason: fmt.Sprintf("account %s does not exist", accountID)}, nil
	}

	available := balance.Sub(l.held[accountID])
	if available.LessThan(amount) {
		return ports.HoldResult{
			Reason: fmt.Sprintf("insufficient funds on account %s: available %s, requested %s", accountID, available, amount),
		}, nil
	}

	l.held[accountID] = l.held[accountID].Add(amount)
	return ports.HoldResult{Granted: true}, nil
}

func (l *InMemory) FinalizeDebit(ctx context.Context, accountID string, amount decimal.Decimal) (ports.DebitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[accountID].LessThan(amount) {
		return ports.DebitResult{}, nil
	}

	l.held[accountID] = l.held[accountID].Sub(amount)
	l.balances[accountID] = l.balances[accountID].Sub(amount)
	return ports.DebitResult{Committed: true}, nil
}

func (l *InMemory) ReleaseHold(ctx context.Context, accountID string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[accountID].LessThan(amount) {
		return fmt.Errorf("no outstanding hold of %s on account %s", amount, accountID)
	}
	l.held[accountID] = l.held[accountID].Sub(amount)
	return nil
}

// Balance returns the current balance of an account.
func (l *InMemory) Balance(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID]
}

// Held returns the total amount currently held on an account.
func (l *InMemory) Held(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[accountID]
}
