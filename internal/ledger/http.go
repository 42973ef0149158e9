package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

const defaultHTTPTimeout = 5 * time.Second

// HTTPClient talks to the core-banking adapter over its JSON API:
//
//	POST /holds            place a hold
//	POST /holds/finalize   convert a hold into a permanent debit
//	POST /holds/release    release a hold
//
// A 2xx answer means the operation was accepted; a 4xx answer with a message
// body is a business decline; anything else is a transport error.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ ports.LedgerClient = (*HTTPClient)(nil)

// NewHTTPClient builds the adapter client. timeout <= 0 falls back to a
// 5 second default; the saga's own deadlines still apply through ctx.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type holdRequest struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type adapterError struct {
	Message string `json:"message"`
}

func (c *HTTPClient) RequestHold(ctx context.Context, accountID string, amount decimal.Decimal) (ports.HoldResult, error) {
	status, body, err := c.post(ctx, "/holds", holdRequest{AccountNumber: accountID, Amount: amount})
	if err != nil {
		return ports.HoldResult{}, err
	}
	if status >= 200 && status < 300 {
		return ports.HoldResult{Granted: true}, nil
	}
	if status >= 400 && status < 500 {
		return ports.HoldResult{Reason: declineReason(body, "hold declined by ledger")}, nil
	}
	return ports.HoldResult{}, fmt.Errorf("core-banking adapter: hold request returned status %d", status)
}

func (c *HTTPClient) FinalizeDebit(ctx context.Context, accountID string, amount decimal.Decimal) (ports.DebitResult, error) {
	status, _, err := c.post(ctx, "/holds/finalize", holdRequest{AccountNumber: accountID, Amount: amount})
	if err != nil {
		return ports.DebitResult{}, err
	}
	if status >= 200 && status < 300 {
		return ports.DebitResult{Committed: true}, nil
	}
	if status >= 400 && status < 500 {
		return ports.DebitResult{}, nil
	}
	return ports.DebitResult{}, fmt.Errorf("core-banking adapter: finalize returned status %d", status)
}

func (c *HTTPClient) ReleaseHold(ctx context.Context, accountID string, amount decimal.Decimal) error {
	status, body, err := c.post(ctx, "/holds/release", holdRequest{AccountNumber: accountID, Amount: amount})
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return fmt.Errorf("core-banking adapter: release returned status %d: %s", status, declineReason(body, ""))
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("core-banking adapter: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, fmt.Errorf("core-banking adapter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("core-banking adapter: %s: %w", path, err)
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return res.StatusCode, buf.Bytes(), nil
}

func declineReason(body []byte, fallback string) string {
	var ae adapterError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
