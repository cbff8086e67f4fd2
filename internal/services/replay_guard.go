package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"storefront-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard remembers processed callbacks. FirstSeen returns true exactly
// once per key within the TTL; Forget releases a key whose processing failed
// so a redelivery is applied.
type ReplayGuard interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// NewReplayGuard returns a Redis backed guard, or an in-process one when
// client is nil.
func NewReplayGuard(client *redis.Client, ttl time.Duration) ReplayGuard {
	if client == nil {
		logging.Infof("Redis not available, callback replay guard is in-process only")
		return NewMemoryReplayGuard(ttl, time.Hour)
	}
	return &RedisReplayGuard{client: client, ttl: ttl}
}

// RedisReplayGuard shares processed keys between instances
type RedisReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func (g *RedisReplayGuard) FirstSeen(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, replayKey(key), time.Now().Unix(), g.ttl).Result()
}

func (g *RedisReplayGuard) Forget(ctx context.Context, key string) error {
	return g.client.Del(ctx, replayKey(key)).Err()
}

// MemoryReplayGuard keeps processed keys in a map swept every cleanupInterval
type MemoryReplayGuard struct {
	processed       map[string]time.Time
	mutex           sync.Mutex
	ttl             time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// NewMemoryReplayGuard starts the sweeper; call Stop to end it
func NewMemoryReplayGuard(ttl, cleanupInterval time.Duration) *MemoryReplayGuard {
	g := &MemoryReplayGuard{
		processed:       make(map[string]time.Time),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	go g.startCleanupRoutine()
	return g
}

func (g *MemoryReplayGuard) FirstSeen(ctx context.Context, key string) (bool, error) {
	id := replayKey(key)
	now := g.now()

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if processedAt, exists := g.processed[id]; exists && now.Sub(processedAt) <= g.ttl {
		logging.Infof("Replay detected - key: %s, previously processed at: %v", key, processedAt)
		return false, nil
	}
	g.processed[id] = now
	return true, nil
}

func (g *MemoryReplayGuard) Forget(ctx context.Context, key string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.processed, replayKey(key))
	return nil
}

// Len returns the number of remembered keys
func (g *MemoryReplayGuard) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.processed)
}

func (g *MemoryReplayGuard) startCleanupRoutine() {
	ticker := time.NewTicker(g.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.cleanup()
		case <-g.stopCleanup:
			return
		}
	}
}

func (g *MemoryReplayGuard) cleanup() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	now := g.now()
	initialCount := len(g.processed)
	for id, processedAt := range g.processed {
		if now.Sub(processedAt) > g.ttl {
			delete(g.processed, id)
		}
	}

	if cleaned := initialCount - len(g.processed); cleaned > 0 {
		logging.Infof("Replay guard cleanup: removed %d expired keys, remaining: %d", cleaned, len(g.processed))
	}
}

// Stop ends the sweeper
func (g *MemoryReplayGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopCleanup) })
}

func replayKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return "mpesa_callback:" + hex.EncodeToString(hash[:])
}
