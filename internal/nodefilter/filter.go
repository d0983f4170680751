package nodefilter

import (
	"strings"
	"sync"

	"telemetry_map/core-go/internal/telemetry"
)

type Predicate func(telemetry.Node) bool

// Filter holds at most one predicate. Nodes it rejects are dimmed, never hidden.
type Filter struct {
	mu    sync.RWMutex
	pred  Predicate
	query string
}

// Set replaces the predicate; nil clears it.
func (f *Filter) Set(pred Predicate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pred = pred
	f.query = ""
}

// SetQuery installs the predicate built by Query and remembers the text it came from.
func (f *Filter) SetQuery(text string) {
	pred := Query(text)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pred = pred
	f.query = ""
	if pred != nil {
		f.query = strings.TrimSpace(text)
	}
}

func (f *Filter) Active() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pred != nil
}

func (f *Filter) QueryText() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

// IsFocused is true when no predicate is set or the predicate accepts n.
func (f *Filter) IsFocused(n telemetry.Node) bool {
	f.mu.RLock()
	pred := f.pred
	f.mu.RUnlock()
	return pred == nil || pred(n)
}

// Query matches nodes whose name, id, city, implementation or network id contain text,
// ignoring case. Blank text yields a nil predicate.
func Query(text string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	return func(n telemetry.Node) bool {
		for _, hay := range []string{n.Name, n.ID, n.City, n.Implementation, n.NetworkID} {
			if strings.Contains(strings.ToLower(hay), needle) {
				return true
			}
		}
		return false
	}
}
