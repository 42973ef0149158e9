package httpx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/upi-payments/internal/httpx"
	"github.com/jcmexdev/upi-payments/internal/ledger"
	"github.com/jcmexdev/upi-payments/internal/npci"
	"github.com/jcmexdev/upi-payments/internal/orchestrator"
	"github.com/jcmexdev/upi-payments/internal/store"
)

func newTestServer(t *testing.T, mode npci.Mode) (*httptest.Server, *store.InMemory) {
	t.Helper()

	l := ledger.NewInMemory(map[string]decimal.Decimal{
		"ACC001": decimal.NewFromInt(10_000),
		"ACC002": decimal.NewFromInt(0),
	})
	st := store.NewInMemory()

	c := orchestrator.New(l, npci.New(mode, 0, 0), st, nil, orchestrator.Config{})
	handler := httpx.NewHandler(c, orchestrator.NewQuery(st, nil))

	srv := httptest.NewServer(httpx.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, st
}

func postPayment(t *testing.T, srv *httptest.Server, body string) (*http.Response, httpx.PaymentResponse) {
	t.Helper()

	res, err := http.Post(srv.URL+"/payments", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var payload httpx.PaymentResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return res, payload
}

const validPayment = `{
	"amount": 500,
	"currency": "USD",
	"payer": {"accountId": "ACC001"},
	"payee": {"accountId": "ACC002"}
}`

func TestProcessPayment_Success(t *testing.T) {
	srv, _ := newTestServer(t, npci.ModeAlwaysConfirm)

	res, payload := postPayment(t, srv, validPayment)

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.True(t, payload.Success)
	require.NotNil(t, payload.Data)
	assert.NotEmpty(t, payload.Data.TransactionID)
	assert.Equal(t, "SUCCESS", payload.Data.Status)
	assert.Equal(t, "UPI", payload.Data.Type)
	assert.Len(t, payload.Data.OrchestrationLog, 5)
	assert.NotNil(t, payload.Data.CompletedAt)
}

func TestProcessPayment_NetworkDeclined(t *testing.T) {
	srv, _ := newTestServer(t, npci.ModeAlwaysDecline)

	res, payload := postPayment(t, srv, validPayment)

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.False(t, payload.Success)
	assert.Equal(t, "payment processing failed", payload.Message)

	// The body still carries the full record so the caller can see why.
	require.NotNil(t, payload.Data)
	assert.Equal(t, "FAILED", payload.Data.Status)
	assert.Len(t, payload.Data.OrchestrationLog, 3)
	require.NotNil(t, payload.Data.FailureDetails)
	assert.Equal(t, "NPCIConfirmation", payload.Data.FailureDetails.FailedAtStep)
}

func TestProcessPayment_InvalidInputCreatesNoRecord(t *testing.T) {
	srv, st := newTestServer(t, npci.ModeAlwaysConfirm)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing amount", body: `{"currency":"USD","payer":{"accountId":"ACC001"},"payee":{"accountId":"ACC002"}}`},
		{name: "negative amount", body: `{"amount":-5,"currency":"USD","payer":{"accountId":"ACC001"},"payee":{"accountId":"ACC002"}}`},
		{name: "missing currency", body: `{"amount":500,"payer":{"accountId":"ACC001"},"payee":{"accountId":"ACC002"}}`},
		{name: "missing payer", body: `{"amount":500,"currency":"USD","payee":{"accountId":"ACC002"}}`},
		{name: "unknown type", body: `{"amount":500,"currency":"USD","type":"CHEQUE","payer":{"accountId":"ACC001"},"payee":{"accountId":"ACC002"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, payload := postPayment(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.False(t, payload.Success)
			assert.Nil(t, payload.Data)
		})
	}

	assert.Equal(t, 0, st.Len(), "rejected requests must not create records")
}

func TestGetPaymentStatus(t *testing.T) {
	srv, _ := newTestServer(t, npci.ModeAlwaysConfirm)

	_, created := postPayment(t, srv, validPayment)
	require.NotNil(t, created.Data)

	res, err := http.Get(srv.URL + "/payments/" + created.Data.TransactionID + "/status")
	require.NoError(t, err)
	defer res.Body.Close()

	var payload httpx.PaymentResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, payload.Success)
	assert.Equal(t, "SUCCESS", payload.Status)
	require.NotNil(t, payload.Data)
	assert.Equal(t, created.Data.TransactionID, payload.Data.TransactionID)
	assert.Len(t, payload.Data.OrchestrationLog, 5)
}

func TestGetPaymentStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, npci.ModeAlwaysConfirm)

	res, err := http.Get(srv.URL + "/payments/no-such-transaction/status")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var payload httpx.PaymentResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "transaction not found", payload.Message)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, npci.ModeAlwaysConfirm)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var payload httpx.HealthResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, "payments-service", payload.Service)
	assert.Equal(t, "running", payload.Status)
}
