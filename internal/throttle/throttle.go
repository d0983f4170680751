package throttle

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum time between two permitted render passes.
const DefaultWindow = 1000 * time.Millisecond

// Clock is the time source of a Gate.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
func SystemClock() Clock { return systemClock{} }

// Mark is the state left behind by the last permitted pass.
type Mark struct {
	At  time.Time
	Key string
	Set bool
}

// ShouldRender decides whether an update arriving at now with selection key may render.
// The first update always renders; later ones need either a different key or at least window
// elapsed since the mark.
func ShouldRender(last Mark, now time.Time, key string, window time.Duration) bool {
	if !last.Set {
		return true
	}
	if key != last.Key {
		return true
	}
	return now.Sub(last.At) >= window
}

// Gate rate-limits render passes. Dropped updates are not queued.
type Gate struct {
	window time.Duration

	mu   sync.Mutex
	mark Mark
}

func NewGate(window time.Duration) *Gate {
	if window < 0 {
		window = 0
	}
	return &Gate{window: window}
}

// Allow reports whether the update may render and, if so, records now and key.
func (g *Gate) Allow(now time.Time, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !ShouldRender(g.mark, now, key, g.window) {
		return false
	}
	g.mark = Mark{At: now, Key: key, Set: true}
	return true
}

func (g *Gate) Last() Mark {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mark
}

func (g *Gate) Window() time.Duration {
	return g.window
}
