package cache

import (
	"context"
	"sync"
	"time"
)

// memoryBlacklist is an in-process Blacklist for tests and single-node dev
// where running Redis would be overkill. Entries are lazily evicted on read
// and swept opportunistically on write.
type memoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti: expiry

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// NewMemory returns an empty in-process Blacklist.
func NewMemory() *memoryBlacklist {
	return &memoryBlacklist{
		entries: make(map[string]time.Time),
	}
}

func (b *memoryBlacklist) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *memoryBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to blacklist
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[jti] = b.now().Add(ttl)

	// Opportunistic sweep so ephemeral entries don't pile up forever.
	if len(b.entries)%1024 == 0 {
		now := b.now()
		for k, exp := range b.entries {
			if now.After(exp) {
				delete(b.entries, k)
			}
		}
	}
	return nil
}

func (b *memoryBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	b.mu.RLock()
	exp, ok := b.entries[jti]
	b.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if b.now().After(exp) {
		b.mu.Lock()
		delete(b.entries, jti)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (b *memoryBlacklist) Ping(ctx context.Context) error { return nil }
func (b *memoryBlacklist) Close() error                   { return nil }
