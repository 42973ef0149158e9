package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
)

// Step names form the audit vocabulary of the orchestration log. They are
// part of the stored record and of the status API, so they never change.
const (
	StepPaymentInitiated = "PaymentInitiated"
	StepBalanceHold      = "BalanceHold"
	StepNPCIConfirmation = "NPCIConfirmation"
	StepFinalizeDebit    = "FinalizeDebit"
	StepPaymentCompleted = "PaymentCompleted"
	StepReleaseHold      = "ReleaseHold"
)

// step is one unit of work in the saga pipeline. run returns the details
// string for the step's SUCCESS log entry, or an error that stops the saga;
// the error message becomes the details of the step's FAILURE entry.
type step struct {
	name string
	run  func(ctx context.Context, tx *entity.Transaction) (string, error)
}

// pipeline is the ordered step sequence of the payment saga. Each step is
// gated on the previous one's success; the coordinator appends the log entry
// before moving on, so log order always equals execution order.
func (c *Coordinator) pipeline() []step {
	return []step{
		c.balanceHoldStep(),
		c.npciConfirmationStep(),
		c.finalizeDebitStep(),
	}
}

// balanceHoldStep asks the ledger to earmark funds on the payer account.
// A non-granted hold is a hard stop for this attempt regardless of whether
// the cause was insufficient funds or ledger unavailability.
func (c *Coordinator) balanceHoldStep() step {
	return step{
		name: StepBalanceHold,
		run: func(ctx context.Context, tx *entity.Transaction) (string, error) {
			res, err := c.ledger.RequestHold(ctx, tx.Payer.AccountID, tx.Amount)
			if err != nil {
				return "", fmt.Errorf("ledger hold request: %w", err)
			}
			if !res.Granted {
				reason := res.Reason
				if reason == "" {
					reason = "insufficient funds"
				}
				return "", errors.New(reason)
			}
			return fmt.Sprintf("hold granted for %s %s on account %s", tx.Amount, tx.Currency, tx.Payer.AccountID), nil
		},
	}
}

// npciConfirmationStep submits the transaction to the clearing switch and
// waits for confirm/decline. The call is bounded by the configured network
// timeout; a timeout and a decline settle the saga identically.
func (c *Coordinator) npciConfirmationStep() step {
	return step{
		name: StepNPCIConfirmation,
		run: func(ctx context.Context, tx *entity.Transaction) (string, error) {
			submitCtx, cancel := context.WithTimeout(ctx, c.cfg.NetworkTimeout)
			defer cancel()

			res, err := c.network.Submit(submitCtx, tx.TransactionID)
			if err != nil {
				return "", fmt.Errorf("switch submission: %w", err)
			}
			if !res.Confirmed {
				msg := res.Message
				if msg == "" {
					msg = "transaction declined by NPCI switch"
				}
				return "", errors.New(msg)
			}
			return res.Message, nil
		},
	}
}

// finalizeDebitStep converts the granted hold into a permanent debit. At
// this point the switch has already confirmed, so a failure here is critical
// and never retried inline.
func (c *Coordinator) finalizeDebitStep() step {
	return step{
		name: StepFinalizeDebit,
		run: func(ctx context.Context, tx *entity.Transaction) (string, error) {
			res, err := c.ledger.FinalizeDebit(ctx, tx.Payer.AccountID, tx.Amount)
			if err != nil {
				return "", fmt.Errorf("finalize debit: %w", err)
			}
			if !res.Committed {
				return "", errors.New("ledger refused to finalize debit")
			}
			return fmt.Sprintf("debit of %s %s committed on account %s", tx.Amount, tx.Currency, tx.Payer.AccountID), nil
		},
	}
}
