package token

import (
	"context"
	"sync"
	"time"
)

// Denylist records the jtis of revoked tokens. Insert must be durable before
// it returns: a client retrying right after logout has to see the revocation.
type Denylist interface {
	Insert(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// MemoryDenylist is the single-process implementation used in tests and in
// local setups without Redis.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: map[string]time.Time{}}
}

func (d *MemoryDenylist) Insert(_ context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (d *MemoryDenylist) Contains(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}
