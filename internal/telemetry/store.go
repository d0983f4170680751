package telemetry

import (
	"sort"
	"strings"
	"sync"
)

type chainState struct {
	label string
	order []string
	nodes map[string]Node
}

// Store is the in-memory state container the views read from. It keeps nodes per chain in
// arrival order and notifies subscribers after every applied feed.
type Store struct {
	mu        sync.RWMutex
	chains    map[string]*chainState
	version   uint64
	listeners map[uint64]func()
	nextID    uint64
}

func NewStore() *Store {
	return &Store{
		chains:    make(map[string]*chainState),
		listeners: make(map[uint64]func()),
	}
}

// Apply merges a feed batch into the store. Upserts keep the original position of nodes that
// are already known; new nodes are appended.
func (s *Store) Apply(f Feed) {
	chain := strings.TrimSpace(f.GenesisHash)
	if chain == "" {
		return
	}

	s.mu.Lock()
	cs, ok := s.chains[chain]
	if !ok {
		cs = &chainState{nodes: make(map[string]Node)}
		s.chains[chain] = cs
	}
	if label := strings.TrimSpace(f.Label); label != "" {
		cs.label = label
	}
	if cs.label == "" {
		cs.label = chain
	}

	for _, n := range f.Upserts {
		if n.ID == "" {
			continue
		}
		if _, exists := cs.nodes[n.ID]; !exists {
			cs.order = append(cs.order, n.ID)
		}
		cs.nodes[n.ID] = n
	}

	if len(f.Removed) > 0 {
		gone := make(map[string]struct{}, len(f.Removed))
		for _, id := range f.Removed {
			if _, exists := cs.nodes[id]; exists {
				delete(cs.nodes, id)
				gone[id] = struct{}{}
			}
		}
		if len(gone) > 0 {
			kept := cs.order[:0]
			for _, id := range cs.order {
				if _, drop := gone[id]; !drop {
					kept = append(kept, id)
				}
			}
			cs.order = kept
		}
	}

	s.version++
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Nodes returns a snapshot of the chain's nodes in arrival order. The returned slice is owned
// by the caller.
func (s *Store) Nodes(chain string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.chains[chain]
	if !ok {
		return []Node{}
	}
	out := make([]Node, 0, len(cs.order))
	for _, id := range cs.order {
		out = append(out, cs.nodes[id])
	}
	return out
}

// Chains lists known chains, most populated first.
func (s *Store) Chains() []Chain {
	s.mu.RLock()
	out := make([]Chain, 0, len(s.chains))
	for hash, cs := range s.chains {
		out = append(out, Chain{GenesisHash: hash, Label: cs.label, NodeCount: len(cs.order)})
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NodeCount != out[j].NodeCount {
			return out[i].NodeCount > out[j].NodeCount
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].GenesisHash < out[j].GenesisHash
	})
	return out
}

// Version increases by one for every applied feed.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn to be called after each applied feed. The returned function removes
// the registration and is safe to call more than once.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Listeners reports the number of live subscriptions.
func (s *Store) Listeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
