package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drishiq/drishiq/internal/pkg/env"
)

const defaultProcessorBaseURL = "https://api.payments.example.com/v1"

// ProcessorClient talks to the external payment processor's REST API.
type ProcessorClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// ChargeRequest asks the processor to collect a payment for a credit package.
type ChargeRequest struct {
	UserID      uint            `json:"user_id"`
	PackageCode string          `json:"package_code"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ReturnURL   string          `json:"return_url,omitempty"`
}

// Charge is the processor's view of a payment.
type Charge struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

func NewProcessorClientFromEnv() *ProcessorClient {
	return &ProcessorClient{
		APIKey:  strings.TrimSpace(env.GetEnv("PAYMENT_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("PAYMENT_API_BASE_URL", defaultProcessorBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured reports whether outbound processor calls can be made.
func (c *ProcessorClient) IsConfigured() bool {
	return c.APIKey != ""
}

// CreateCharge starts a payment at the processor and returns the checkout
// handle. A non-2xx processor response surfaces as an error for the 502 path.
func (c *ProcessorClient) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if !c.IsConfigured() {
		return nil, errors.New("PAYMENT_API_KEY is not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("payment processor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("invalid processor response: %w", err)
	}
	return &charge, nil
}

// GetCharge fetches the current state of a payment from the processor.
func (c *ProcessorClient) GetCharge(ctx context.Context, chargeID string) (*Charge, error) {
	if !c.IsConfigured() {
		return nil, errors.New("PAYMENT_API_KEY is not configured")
	}
	if strings.TrimSpace(chargeID) == "" {
		return nil, errors.New("charge id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/charges/"+chargeID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("payment processor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("invalid processor response: %w", err)
	}
	return &charge, nil
}
