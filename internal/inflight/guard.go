// Package inflight provides a single-slot lock per chat session so a session
// never has more than one relay request outstanding.
package inflight

import (
	"context"
	"errors"
	"sync"
)

var ErrBusy = errors.New("a message is already being processed for this session")

// Guard hands out at most one slot per key. The returned release func must
// be called exactly once when the request finishes.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard keeps slots in process memory.
type MemoryGuard struct {
	mu    sync.Mutex
	slots map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{slots: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, taken := g.slots[key]; taken {
		return nil, ErrBusy
	}
	g.slots[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.slots, key)
			g.mu.Unlock()
		})
	}, nil
}

// Len reports how many slots are currently held.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}
