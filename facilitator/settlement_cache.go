package facilitator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultSettlementTTL bounds how long a successful settlement answers
// duplicate requests.
const DefaultSettlementTTL = 5 * time.Minute

// SettlementCache provides idempotency for settle operations: successful
// responses are cached and concurrent duplicates coalesce onto a single
// in-flight submission. Failures are never cached, so a client retry gets
// a fresh attempt.
type SettlementCache struct {
	mu       sync.Mutex
	results  map[string]*SettleResponse
	expiry   map[string]time.Time
	inFlight map[string]chan struct{}
	ttl      time.Duration
}

// NewSettlementCache creates a cache with the given TTL for successes.
func NewSettlementCache(ttl time.Duration) *SettlementCache {
	return &SettlementCache{
		results:  make(map[string]*SettleResponse),
		expiry:   make(map[string]time.Time),
		inFlight: make(map[string]chan struct{}),
		ttl:      ttl,
	}
}

// GenerateSettlementKey identifies a settlement attempt by its charging
// fields plus the client-chosen request id.
func GenerateSettlementKey(req SettleRequest) string {
	h := sha256.New()
	h.Write([]byte(req.APIKey))
	h.Write([]byte{0})
	h.Write([]byte(req.PayTo))
	h.Write([]byte{0})
	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], req.Amount)
	h.Write(amount[:])
	h.Write([]byte(req.RequestID))
	return hex.EncodeToString(h.Sum(nil))
}

// SettlementStatus is the outcome of a cache check.
type SettlementStatus int

const (
	// StatusNotFound: no cached result, no in-flight duplicate; the caller
	// now holds the in-flight marker and must Complete or Fail it.
	StatusNotFound SettlementStatus = iota
	// StatusCached: a prior success answers this request.
	StatusCached
	// StatusInFlight: another request is settling the same key.
	StatusInFlight
)

// CheckAndMark atomically checks the cache and, when nothing is cached or
// in flight, marks the key in-flight for this caller.
func (c *SettlementCache) CheckAndMark(key string) (SettlementStatus, *SettleResponse, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if expiry, exists := c.expiry[key]; exists {
		if time.Now().Before(expiry) {
			if result, ok := c.results[key]; ok {
				return StatusCached, result, nil
			}
		}
		delete(c.results, key)
		delete(c.expiry, key)
	}

	if done, exists := c.inFlight[key]; exists {
		return StatusInFlight, nil, done
	}

	done := make(chan struct{})
	c.inFlight[key] = done
	return StatusNotFound, nil, done
}

// WaitForResult blocks until the in-flight holder finishes or ctx ends. A
// nil result with nil error means the holder failed without caching; the
// waiter should attempt its own settlement.
func (c *SettlementCache) WaitForResult(ctx context.Context, key string, done chan struct{}) (*SettleResponse, error) {
	select {
	case <-done:
		return c.Get(key), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns a cached response, or nil when absent or expired.
func (c *SettlementCache) Get(key string) *SettleResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, exists := c.expiry[key]
	if !exists {
		return nil
	}
	if time.Now().After(expiry) {
		delete(c.results, key)
		delete(c.expiry, key)
		return nil
	}
	return c.results[key]
}

// Complete caches a successful response, releases the in-flight marker and
// wakes waiters.
func (c *SettlementCache) Complete(key string, response *SettleResponse, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = response
	c.expiry[key] = time.Now().Add(c.ttl)
	delete(c.inFlight, key)
	close(done)

	c.cleanupExpiredLocked()
}

// Fail releases the in-flight marker without caching, so the settlement
// stays retryable. Waiters wake and run their own attempt.
func (c *SettlementCache) Fail(key string, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, key)
	close(done)
}

func (c *SettlementCache) cleanupExpiredLocked() {
	now := time.Now()
	for key, expiry := range c.expiry {
		if now.After(expiry) {
			delete(c.results, key)
			delete(c.expiry, key)
		}
	}
}
