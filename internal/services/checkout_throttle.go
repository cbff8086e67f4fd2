package services

import (
	"context"
	"fmt"
	"time"

	"storefront-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// CheckoutThrottle limits how often one phone number may start an STK push.
// It fails open: a Redis error lets the checkout through.
type CheckoutThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewCheckoutThrottle creates a throttle; a nil client or a zero window
// disables it.
func NewCheckoutThrottle(client *redis.Client, window time.Duration) *CheckoutThrottle {
	return &CheckoutThrottle{client: client, window: window}
}

// Enabled reports whether checkouts are throttled at all
func (t *CheckoutThrottle) Enabled() bool {
	return t != nil && t.client != nil && t.window > 0
}

// Allow claims the window for phone. It returns false while an earlier
// claim is still active.
func (t *CheckoutThrottle) Allow(ctx context.Context, phone string) bool {
	if !t.Enabled() {
		return true
	}

	claimed, err := t.client.SetNX(ctx, rateLimitKey(phone), "1", t.window).Result()
	if err != nil {
		logging.Errorf("Checkout throttle unavailable, allowing request - phone: %s, error: %v", phone, err)
		return true
	}
	return claimed
}

// Release drops the claim for phone so a validation failure does not block
// the payer's next attempt.
func (t *CheckoutThrottle) Release(ctx context.Context, phone string) {
	if !t.Enabled() {
		return
	}
	if err := t.client.Del(ctx, rateLimitKey(phone)).Err(); err != nil {
		logging.Errorf("Failed to release checkout throttle - phone: %s, error: %v", phone, err)
	}
}

// RetryAfter returns how long phone still has to wait, or 0
func (t *CheckoutThrottle) RetryAfter(ctx context.Context, phone string) time.Duration {
	if !t.Enabled() {
		return 0
	}
	ttl, err := t.client.TTL(ctx, rateLimitKey(phone)).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func rateLimitKey(phone string) string {
	return fmt.Sprintf("checkout_rate_limit:%s", phone)
}
