// Package gateway talks to the remote payment gateway's merchant API.
// It exposes the two operations the reconciliation engine consumes and
// normalizes every transport or non-success outcome into an error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MaxInfoBatchSize is the gateway's hard cap on one get-invoice-info call.
const MaxInfoBatchSize = 100

var (
	ErrGatewayStatus = errors.New("gateway returned non-success status")
	ErrEmptyResult   = errors.New("gateway returned empty result")
	ErrBatchTooLarge = errors.New("too many uuids in one info batch")
)

// Client defines the remote gateway operations.
type Client interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error)
	GetInvoiceInfo(ctx context.Context, uuids []string) ([]InvoiceInfo, error)
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates a gateway client for the given API base URL and key.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateInvoice issues the create-invoice call and returns the created
// invoice, or an error when the gateway refuses or the transport fails.
func (c *HTTPClient) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	var resp createInvoiceResponse
	if err := c.post(ctx, "/invoice/create", req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayStatus, resp.Status)
	}
	if resp.Result == nil {
		return nil, ErrEmptyResult
	}
	return resp.Result, nil
}

// GetInvoiceInfo fetches current info for up to MaxInfoBatchSize invoices.
func (c *HTTPClient) GetInvoiceInfo(ctx context.Context, uuids []string) ([]InvoiceInfo, error) {
	if len(uuids) > MaxInfoBatchSize {
		return nil, fmt.Errorf("%w: %d", ErrBatchTooLarge, len(uuids))
	}
	body := struct {
		UUIDs []string `json:"uuids"`
	}{UUIDs: uuids}

	var resp invoiceInfoResponse
	if err := c.post(ctx, "/invoice/merchant/info", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayStatus, resp.Status)
	}
	return resp.Result, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d", ErrGatewayStatus, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
