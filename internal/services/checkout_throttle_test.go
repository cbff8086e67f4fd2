package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutThrottle_DisabledAllowsEverything(t *testing.T) {
	ctx := context.Background()

	for name, throttle := range map[string]*CheckoutThrottle{
		"nil":       nil,
		"no client": NewCheckoutThrottle(nil, 30*time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, throttle.Enabled())
			assert.True(t, throttle.Allow(ctx, "254700000001"))
			assert.True(t, throttle.Allow(ctx, "254700000001"))
			assert.Zero(t, throttle.RetryAfter(ctx, "254700000001"))
			throttle.Release(ctx, "254700000001")
		})
	}
}

func TestCheckoutThrottle_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	throttle := NewCheckoutThrottle(client, 30*time.Second)
	assert.True(t, throttle.Enabled())
	assert.True(t, throttle.Allow(context.Background(), "254700000001"))
	assert.Zero(t, throttle.RetryAfter(context.Background(), "254700000001"))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "checkout_rate_limit:254700000001", rateLimitKey("254700000001"))
}
