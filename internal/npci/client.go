// Package npci models the external UPI clearing switch. The switch is
// outside this system's control and its outcomes are opaque, so the client
// comes in three variants: a probabilistic one for production-like traffic
// and two deterministic ones for tests and drills.
package npci

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// Mode selects the switch behaviour.
type Mode string

const (
	// ModeProbabilistic confirms with the configured success rate after the
	// simulated round-trip latency.
	ModeProbabilistic Mode = "probabilistic"
	ModeAlwaysConfirm Mode = "always-confirm"
	ModeAlwaysDecline Mode = "always-decline"
)

const (
	msgConfirmed = "transaction confirmed by NPCI"
	msgDeclined  = "transaction declined by NPCI switch"
)

// Client submits transactions to the switch. Submit blocks for the simulated
// round trip and honours ctx, so the caller's timeout always bounds it.
type Client struct {
	mode        Mode
	successRate float64
	latency     time.Duration
}

var _ ports.NetworkClient = (*Client)(nil)

// New builds a switch client. successRate is only consulted in
// ModeProbabilistic; latency <= 0 disables the simulated round trip.
func New(mode Mode, successRate float64, latency time.Duration) *Client {
	return &Client{
		mode:        mode,
		successRate: successRate,
		latency:     latency,
	}
}

func (c *Client) Submit(ctx context.Context, transactionID string) (ports.SwitchResult, error) {
	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ports.SwitchResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	var confirmed bool
	switch c.mode {
	case ModeAlwaysConfirm:
		confirmed = true
	case ModeAlwaysDecline:
		confirmed = false
	default:
		confirmed = rand.Float64() < c.successRate
	}

	if !confirmed {
		return ports.SwitchResult{Message: msgDeclined}, nil
	}
	return ports.SwitchResult{Confirmed: true, Message: msgConfirmed}, nil
}
