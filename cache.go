package cascade

import (
	"sync"

	solana "github.com/gagliardetto/solana-go"

	"github.com/cascade-protocol/splits-go/program"
)

// SplitMemo remembers which vault addresses resolve to a split config.
// Positive and definitive-negative answers cannot become false, so they
// are cached forever. "Account does not exist yet" is never cached: the
// account may be created later.
type SplitMemo struct {
	mu    sync.RWMutex
	known map[solana.PublicKey]bool
}

// NewSplitMemo creates an empty memo.
func NewSplitMemo() *SplitMemo {
	return &SplitMemo{known: make(map[solana.PublicKey]bool)}
}

// Lookup reports (isSplit, known).
func (m *SplitMemo) Lookup(address solana.PublicKey) (bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	isSplit, ok := m.known[address]
	return isSplit, ok
}

// Store records a definitive answer for an address.
func (m *SplitMemo) Store(address solana.PublicKey, isSplit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[address] = isSplit
}

// Len reports how many addresses have been memoized.
func (m *SplitMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}

// ProtocolConfigCache holds the protocol config singleton. The config is
// cached indefinitely; the only invalidation signal is the on-chain
// stale-fee-recipient failure, meaning the fee wallet rotated after the
// cache was populated.
type ProtocolConfigCache struct {
	mu            sync.RWMutex
	cfg           *program.ProtocolConfig
	invalidations int
}

// NewProtocolConfigCache creates an empty cache.
func NewProtocolConfigCache() *ProtocolConfigCache {
	return &ProtocolConfigCache{}
}

// Get returns the cached config, or nil when unpopulated.
func (c *ProtocolConfigCache) Get() *program.ProtocolConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Set stores a freshly read config.
func (c *ProtocolConfigCache) Set(cfg *program.ProtocolConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Invalidate drops the cached config.
func (c *ProtocolConfigCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = nil
	c.invalidations++
}

// Invalidations reports how many times the cache has been invalidated.
func (c *ProtocolConfigCache) Invalidations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalidations
}
