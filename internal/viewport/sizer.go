package viewport

import "sync"

// Bus delivers resize events for one client window.
type Bus struct {
	mu        sync.Mutex
	current   Viewport
	known     bool
	listeners map[uint64]func(Viewport)
	nextID    uint64
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[uint64]func(Viewport))}
}

// Publish records vp as the current viewport and notifies every listener.
func (b *Bus) Publish(vp Viewport) {
	b.mu.Lock()
	b.current = vp
	b.known = true
	listeners := make([]func(Viewport), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(vp)
	}
}

// Current returns the last published viewport.
func (b *Bus) Current() (Viewport, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.known
}

func (b *Bus) Subscribe(fn func(Viewport)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Sizer owns the MapRect of one view and keeps it in sync with the resize events of the bus
// it is mounted on.
type Sizer struct {
	constants Constants
	onChange  func(MapRect)

	mu          sync.Mutex
	rect        MapRect
	mounted     bool
	unsubscribe func()
}

// NewSizer creates an unmounted sizer. onChange, if set, is called after every recomputation.
func NewSizer(c Constants, onChange func(MapRect)) *Sizer {
	return &Sizer{constants: c, onChange: onChange}
}

// Mount computes the rectangle once from the bus's current viewport and then follows resize
// events until Unmount. Mounting an already mounted sizer moves it to the new bus.
func (s *Sizer) Mount(bus *Bus) {
	s.Unmount()

	s.mu.Lock()
	s.mounted = true
	s.mu.Unlock()

	if vp, ok := bus.Current(); ok {
		s.resize(vp)
	}
	unsubscribe := bus.Subscribe(s.resize)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Unmount stops following resize events. It is safe to call on an unmounted sizer.
func (s *Sizer) Unmount() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mounted = false
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Sizer) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *Sizer) Rect() MapRect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect
}

func (s *Sizer) resize(vp Viewport) {
	rect := ComputeRect(vp, s.constants)

	s.mu.Lock()
	if !s.mounted {
		// A resize delivered after teardown must not touch the rectangle.
		s.mu.Unlock()
		return
	}
	s.rect = rect
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(rect)
	}
}
