package broadcast

import (
	"sync"
	"sync/atomic"
)

// Gate serializes deliveries to one subscriber and stops them for good once closed.
// Close never waits for a delivery that is already running, so a subscriber may
// close its own gate from inside the delivered callback.
type Gate struct {
	mu     sync.Mutex
	closed atomic.Bool
}

// Do runs fn unless the gate is closed. Reports whether fn ran.
func (g *Gate) Do(fn func()) bool {
	if g.closed.Load() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// closed while waiting behind another delivery
	if g.closed.Load() {
		return false
	}
	fn()
	return true
}

// Close reports false when the gate was already closed. No delivery starts after it returns.
func (g *Gate) Close() bool {
	return g.closed.CompareAndSwap(false, true)
}

func (g *Gate) Closed() bool {
	return g.closed.Load()
}
