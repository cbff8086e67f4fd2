package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayRequest is the STK push request sent to the gateway adapter
type GatewayRequest struct {
	Phone       string `json:"phone"`
	Amount      int64  `json:"amount"`
	DonorName   string `json:"donor_name"`
	PaymentType string `json:"payment_type"`
	PaymentID   string `json:"payment_id"`
}

// GatewayResponse is the adapter's answer. The *_saved flags report whether
// the adapter wrote to the payment stores itself; they are telemetry only.
type GatewayResponse struct {
	Status         string `json:"status"` // success or error
	Reference      string `json:"reference,omitempty"`
	Error          string `json:"error,omitempty"`
	Warning        string `json:"warning,omitempty"`
	PrimarySaved   *bool  `json:"supabase1_saved,omitempty"`
	SecondarySaved *bool  `json:"supabase2_saved,omitempty"`
}

const (
	GatewayStatusSuccess = "success"
	GatewayStatusError   = "error"
)

// Accepted reports whether the push was accepted with a usable reference
func (r *GatewayResponse) Accepted() bool {
	return r.Status == GatewayStatusSuccess && r.Reference != ""
}

// PaymentGateway starts an STK push for a pending payment
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, req GatewayRequest) (*GatewayResponse, error)
}

// GatewayError is returned for transport failures, non-2xx answers and
// bodies that do not decode.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway responded with status %d: %s", e.StatusCode, e.Message)
	}
	return "gateway request failed: " + e.Message
}

// HTTPGateway calls the STK push adapter over HTTP
type HTTPGateway struct {
	url        string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway client with an explicit request timeout
func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// InitiateSTKPush posts req to the adapter. A decoded body is returned even
// when its status is "error"; the caller decides what that means.
func (g *HTTPGateway) InitiateSTKPush(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "failed to read response"}
	}

	var gatewayResp GatewayResponse
	decodeErr := json.Unmarshal(body, &gatewayResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && gatewayResp.Error != "" {
			msg = gatewayResp.Error
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	if gatewayResp.Status != GatewayStatusSuccess && gatewayResp.Status != GatewayStatusError {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unknown status %q", gatewayResp.Status)}
	}

	return &gatewayResp, nil
}
