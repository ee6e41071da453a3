package wshandler

import (
	"errors"
	"sync"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/service/realtime"
)

var ErrDeviceDisconnected = errors.New("device disconnected")

type watch struct {
	onPosition func(models.Position)
	onError    func(error)
}

// ConnGeolocator is the position source of a driver socket: every position frame the
// driver app sends is forwarded to the active watches.
type ConnGeolocator struct {
	mu      sync.Mutex
	closed  bool
	nextID  realtime.WatchID
	watches map[realtime.WatchID]watch
}

func NewConnGeolocator() *ConnGeolocator {
	return &ConnGeolocator{watches: make(map[realtime.WatchID]watch)}
}

func (g *ConnGeolocator) Available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

func (g *ConnGeolocator) WatchPosition(onPosition func(models.Position), onError func(error)) (realtime.WatchID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, ErrDeviceDisconnected
	}
	g.nextID++
	g.watches[g.nextID] = watch{onPosition: onPosition, onError: onError}
	return g.nextID, nil
}

func (g *ConnGeolocator) ClearWatch(id realtime.WatchID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.watches, id)
}

// Feed delivers one fix to every watch. Callbacks run on the caller's goroutine.
func (g *ConnGeolocator) Feed(p models.Position) int {
	watches := g.snapshot()
	for _, w := range watches {
		w.onPosition(p)
	}
	return len(watches)
}

// Close reports ErrDeviceDisconnected to the remaining watches and refuses new ones.
func (g *ConnGeolocator) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	for _, w := range g.snapshot() {
		if w.onError != nil {
			w.onError(ErrDeviceDisconnected)
		}
	}
}

func (g *ConnGeolocator) snapshot() []watch {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]watch, 0, len(g.watches))
	for _, w := range g.watches {
		out = append(out, w)
	}
	return out
}
