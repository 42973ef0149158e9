package npci_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/upi-payments/internal/npci"
)

func TestSubmit_AlwaysConfirm(t *testing.T) {
	c := npci.New(npci.ModeAlwaysConfirm, 0, 0)

	res, err := c.Submit(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.NotEmpty(t, res.Message)
}

func TestSubmit_AlwaysDecline(t *testing.T) {
	c := npci.New(npci.ModeAlwaysDecline, 0, 0)

	res, err := c.Submit(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Contains(t, res.Message, "declined")
}

func TestSubmit_ProbabilisticBounds(t *testing.T) {
	// Rate 1 always confirms, rate 0 always declines.
	confirmAll := npci.New(npci.ModeProbabilistic, 1.0, 0)
	declineAll := npci.New(npci.ModeProbabilistic, 0.0, 0)

	for i := 0; i < 50; i++ {
		res, err := confirmAll.Submit(context.Background(), "tx")
		require.NoError(t, err)
		assert.True(t, res.Confirmed)

		res, err = declineAll.Submit(context.Background(), "tx")
		require.NoError(t, err)
		assert.False(t, res.Confirmed)
	}
}

func TestSubmit_HonoursContextCancellation(t *testing.T) {
	c := npci.New(npci.ModeAlwaysConfirm, 0, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Submit(ctx, "tx-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
