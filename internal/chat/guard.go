package chat

import (
	"context"
	"sync"
	"time"
)

// Guard serializes turns per session: concurrent turns on the same session
// run one at a time while turns on different sessions proceed in parallel.
// Entries for idle sessions are dropped by a janitor.
type Guard struct {
	mu          sync.Mutex
	entries     map[string]*guardEntry
	idleTimeout time.Duration
}

type guardEntry struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

func NewGuard(idleTimeout time.Duration) *Guard {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	return &Guard{
		entries:     make(map[string]*guardEntry),
		idleTimeout: idleTimeout,
	}
}

// Lock acquires the per-session lock and returns the unlock func.
func (g *Guard) Lock(sessionID string) func() {
	g.mu.Lock()
	e, ok := g.entries[sessionID]
	if !ok {
		e = &guardEntry{}
		g.entries[sessionID] = e
	}
	e.refs++
	e.lastUsed = time.Now()
	g.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		g.mu.Lock()
		e.refs--
		e.lastUsed = time.Now()
		g.mu.Unlock()
	}
}

// StartJanitor drops idle entries periodically until ctx is done.
func (g *Guard) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.expireIdle()
			}
		}
	}()
}

// ActiveCount reports tracked session entries.
func (g *Guard) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Guard) expireIdle() {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, e := range g.entries {
		// Never drop an entry someone still holds or waits on.
		if e.refs > 0 {
			continue
		}
		if now.Sub(e.lastUsed) < g.idleTimeout {
			continue
		}
		delete(g.entries, id)
	}
}
