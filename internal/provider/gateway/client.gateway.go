package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the payment network's REST API. Any transport satisfying
// PaymentGateway is valid; this is the default HTTP implementation.
type Client struct {
	BaseURL    string
	APIKey     string
	HttpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HttpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (c *Client) CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	var res TransferResult
	if err := c.post(ctx, "/v1/transfers", req.IdempotencyKey, req, &res); err != nil {
		c.log.Warn("transfer request failed",
			zap.String("destination", req.DestinationRef),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	var res RefundResult
	if err := c.post(ctx, "/v1/refunds", req.IdempotencyKey, req, &res); err != nil {
		c.log.Warn("refund request failed",
			zap.String("charge_ref", req.ChargeRef),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateAccount(ctx context.Context, req AccountRequest) (*AccountResult, error) {
	var res AccountResult
	if err := c.post(ctx, "/v1/accounts", "", req, &res); err != nil {
		c.log.Warn("account creation failed", zap.String("payee_id", req.PayeeID), zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetAccountStatus(ctx context.Context, accountRef string) (*RawAccountState, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s", c.BaseURL, accountRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway account status %d: %s", resp.StatusCode, string(body))
	}

	var state RawAccountState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway %s returned %d: %s", path, resp.StatusCode, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
