package llm

import (
	"errors"
	"sync"
)

// ErrNoKeys indicates the pool was constructed without any API keys.
var ErrNoKeys = errors.New("no API keys configured")

// KeyPool hands out API keys round-robin. Rotation is explicit: each
// call to Next advances the cursor, so concurrent callers spread load
// across the configured keys.
type KeyPool struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyPool creates a pool over the given keys. Empty keys are dropped.
func NewKeyPool(keys []string) (*KeyPool, error) {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoKeys
	}
	return &KeyPool{keys: filtered}, nil
}

// Next returns the next key in round-robin order.
func (p *KeyPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := p.keys[p.next]
	p.next = (p.next + 1) % len(p.keys)
	return key
}

// Size returns the number of keys in the pool.
func (p *KeyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
