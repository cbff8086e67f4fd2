package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-api/internal/models"
	"storefront-api/pkg/logging"
)

const SignatureHeader = "X-Storefront-Signature"

// DefaultRetryDelays is the wait before the 2nd and 3rd delivery attempt
var DefaultRetryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}

// WebhookNotifier posts payment.completed events to an external backend
type WebhookNotifier struct {
	url         string
	secret      string
	serviceName string
	httpClient  *http.Client
	retryDelays []time.Duration
}

// NewWebhookNotifier creates a notifier; an empty url disables it
func NewWebhookNotifier(url, secret, serviceName string) *WebhookNotifier {
	return &WebhookNotifier{
		url:         url,
		secret:      secret,
		serviceName: serviceName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryDelays: DefaultRetryDelays,
	}
}

// WithRetryDelays overrides the retry schedule; its length is the attempt count
func (wn *WebhookNotifier) WithRetryDelays(delays []time.Duration) *WebhookNotifier {
	wn.retryDelays = delays
	return wn
}

// WebhookPayload represents the payload sent to the backend
type WebhookPayload struct {
	Event         string `json:"event"` // payment.completed
	PaymentID     uint   `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	FileID        uint   `json:"file_id"`
	PhoneNumber   string `json:"phone_number"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"` // RFC 3339
}

// PaymentCompleted sends the event with retries. It blocks; run it in a
// goroutine.
func (wn *WebhookNotifier) PaymentCompleted(ctx context.Context, record *models.PaymentRecord) {
	if wn.url == "" {
		return
	}

	payload := WebhookPayload{
		Event:         "payment.completed",
		PaymentID:     record.ID,
		TransactionID: record.Reference(),
		FileID:        record.ProjectID,
		PhoneNumber:   record.PhoneNumber,
		Amount:        record.Amount,
		Status:        string(record.PaymentStatus),
		Source:        wn.serviceName,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	wn.sendWithRetry(ctx, payload)
}

func (wn *WebhookNotifier) sendWithRetry(ctx context.Context, payload WebhookPayload) {
	maxRetries := len(wn.retryDelays)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := wn.sendWebhook(ctx, payload)
		if err == nil {
			logging.Infof("Webhook notification sent - url: %s, transaction: %s, attempt: %d",
				wn.url, payload.TransactionID, attempt+1)
			return
		}

		logging.Errorf("Webhook notification failed - url: %s, transaction: %s, attempt: %d, error: %v",
			wn.url, payload.TransactionID, attempt+1, err)

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wn.retryDelays[attempt]):
			}
		}
	}

	logging.Errorf("Webhook notification failed after %d attempts - url: %s, transaction: %s",
		maxRetries, wn.url, payload.TransactionID)
}

func (wn *WebhookNotifier) sendWebhook(ctx context.Context, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Storefront-Webhook/1.0")
	if wn.secret != "" {
		req.Header.Set(SignatureHeader, Sign(jsonData, wn.secret))
	}

	resp, err := wn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
