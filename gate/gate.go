// Package gate implements the per-client admission gate: a fixed counting
// window that starts at a client's first request and denies once the
// threshold is exceeded. Expiry is decided by timestamp comparison on read,
// so correctness never depends on a timer firing; the background prune loop
// exists only to reclaim memory for idle clients.
package gate

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Gate is a per-client fixed-window request counter.
// It is safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	clients map[string]*window

	limit    int
	duration time.Duration

	now  func() time.Time // injectable for tests
	done chan struct{}
}

// New creates a Gate admitting at most limit requests per client within each
// duration-long window. A background goroutine prunes expired entries.
func New(limit int, duration time.Duration) *Gate {
	g := &Gate{
		clients:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go g.pruneLoop()
	return g
}

// Admit reports whether the client may proceed. An admitted request
// increments the client's counter; a denied request has no side effect.
// The window for a client begins at its first admitted request and expires
// independently of other clients.
func (g *Gate) Admit(clientID string) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.clients[clientID]
	if !ok || now.Sub(w.start) >= g.duration {
		g.clients[clientID] = &window{start: now, count: 1}
		return true
	}
	if w.count >= g.limit {
		return false
	}
	w.count++
	return true
}

// Stop terminates the background prune goroutine.
func (g *Gate) Stop() {
	close(g.done)
}

// pruneLoop removes expired windows so idle clients don't accumulate.
func (g *Gate) pruneLoop() {
	ticker := time.NewTicker(g.duration)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			now := g.now()
			g.mu.Lock()
			for id, w := range g.clients {
				if now.Sub(w.start) >= g.duration {
					delete(g.clients, id)
				}
			}
			g.mu.Unlock()
		}
	}
}
