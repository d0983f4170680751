package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telemetry_map/core-go/internal/columns"
	"telemetry_map/core-go/internal/metrics"
	"telemetry_map/core-go/internal/nodefilter"
	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/settings"
	"telemetry_map/core-go/internal/telemetry"
	"telemetry_map/core-go/internal/throttle"
	"telemetry_map/core-go/internal/viewport"
	"telemetry_map/core-go/internal/visibleset"
)

// SettingsSource supplies the column visibility used by every pass.
type SettingsSource interface {
	Current() settings.Settings
}

type Options struct {
	Viewport   viewport.Constants
	Tiers      projection.Tiers
	Throttle   time.Duration
	VisibleCap int
}

func DefaultOptions() Options {
	return Options{
		Viewport:   viewport.DefaultConstants(),
		Tiers:      projection.DefaultTiers(),
		Throttle:   throttle.DefaultWindow,
		VisibleCap: visibleset.DefaultCap,
	}
}

// Deps are the collaborators shared by all views.
type Deps struct {
	Log      zerolog.Logger
	Store    *telemetry.Store
	Settings SettingsSource
	Metrics  *metrics.Metrics
	Clock    throttle.Clock
}

// Frame is the output of the last render pass of a view.
type Frame struct {
	Rect         viewport.MapRect                   `json:"rect"`
	Markers      []projection.Marker                `json:"markers"`
	Skipped      int                                `json:"skipped"`
	MarkersStale bool                               `json:"markers_stale"`
	Table        columns.Snapshot                   `json:"table"`
	Chains       visibleset.Capped[telemetry.Chain] `json:"chains"`
	Subscribed   string                             `json:"subscribed"`
	NodeCount    int                                `json:"node_count"`
	Filter       string                             `json:"filter,omitempty"`
	Pass         uint64                             `json:"pass"`
	RenderedAt   time.Time                          `json:"rendered_at"`
}

// View is the server-side state of one dashboard client. All mutations of the view's own
// state go through mu, which makes the view the single writer of its rect, filter, gate and
// frame.
type View struct {
	id   string
	deps Deps
	opts Options
	log  zerolog.Logger

	bus       *viewport.Bus
	sizer     *viewport.Sizer
	container projection.Container
	filter    nodefilter.Filter
	gate      *throttle.Gate
	table     *columns.Table

	mu               sync.Mutex
	subscribed       string
	sort             columns.Sort
	frame            Frame
	lastSeen         time.Time
	closed           bool
	unsubscribeStore func()
}

func newView(id string, deps Deps, opts Options) *View {
	v := &View{
		id:    id,
		deps:  deps,
		opts:  opts,
		log:   deps.Log.With().Str("session_id", id).Logger(),
		bus:   viewport.NewBus(),
		gate:  throttle.NewGate(opts.Throttle),
		table: columns.NewTable(),
		frame: Frame{
			Markers: []projection.Marker{},
			Table:   columns.Snapshot{Headers: []columns.Header{}, Rows: []columns.Row{}},
			Chains:  visibleset.Cap[telemetry.Chain](nil, opts.VisibleCap),
		},
	}
	v.lastSeen = deps.Clock.Now()
	v.sizer = viewport.NewSizer(opts.Viewport, func(viewport.MapRect) { v.force() })
	return v
}

func (v *View) ID() string { return v.id }

// mount starts following resize events and store updates.
func (v *View) mount() {
	v.sizer.Mount(v.bus)
	unsubscribe := v.deps.Store.Subscribe(func() { v.Tick(v.deps.Clock.Now()) })

	v.mu.Lock()
	v.unsubscribeStore = unsubscribe
	v.mu.Unlock()
}

// close releases every subscription. A closed view ignores all further events.
func (v *View) close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribeStore
	v.unsubscribeStore = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	v.sizer.Unmount()
}

// Tick is a state-driven update. It renders only when the throttle gate allows it and reports
// whether it did.
func (v *View) Tick(now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	if !v.gate.Allow(now, v.subscribed) {
		v.deps.Metrics.ObserveRenderDecision(metrics.OutcomeDropped)
		return false
	}
	v.deps.Metrics.ObserveRenderDecision(metrics.OutcomeAllowed)
	v.renderLocked(now)
	return true
}

// Resize publishes a new browser viewport to the view's resize bus.
func (v *View) Resize(vp viewport.Viewport) {
	v.touch()
	v.bus.Publish(vp)
}

// SetContainer records the measured geometry of the map container.
func (v *View) SetContainer(g projection.ContainerGeometry) {
	v.touch()
	v.container.Set(g)
	v.force()
}

// SetFilter replaces the focus filter with a search query; blank clears it.
func (v *View) SetFilter(query string) {
	v.touch()
	v.filter.SetQuery(query)
	v.force()
}

// SetSort changes the table order. Unknown column keys are rejected.
func (v *View) SetSort(s columns.Sort) error {
	if s.Key != "" {
		if _, err := columns.Lookup(s.Key); err != nil {
			return err
		}
	}
	v.touch()

	v.mu.Lock()
	v.sort = s
	v.mu.Unlock()

	v.force()
	return nil
}

// Subscribe switches the highlighted chain. A new selection passes the throttle gate
// immediately.
func (v *View) Subscribe(chain string) {
	v.touch()

	v.mu.Lock()
	if chain == v.subscribed {
		v.mu.Unlock()
		return
	}
	v.subscribed = chain
	v.mu.Unlock()

	v.Tick(v.deps.Clock.Now())
}

// Frame returns the last rendered frame.
func (v *View) Frame() Frame {
	v.touch()

	v.mu.Lock()
	defer v.mu.Unlock()
	f := v.frame
	f.Markers = make([]projection.Marker, len(v.frame.Markers))
	copy(f.Markers, v.frame.Markers)
	return f
}

// Poll is a periodic tick from the client followed by a read of the current frame.
func (v *View) Poll() Frame {
	v.Tick(v.deps.Clock.Now())
	return v.Frame()
}

// TableFrame returns the last rendered frame and records its table as displayed, so later
// passes flag cells against what the client actually drew.
func (v *View) TableFrame() Frame {
	v.touch()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.table.Served(v.frame.Table)
	f := v.frame
	f.Markers = make([]projection.Marker, len(v.frame.Markers))
	copy(f.Markers, v.frame.Markers)
	return f
}

// PollTable is Poll for clients that redraw the table from the result.
func (v *View) PollTable() Frame {
	v.Tick(v.deps.Clock.Now())
	return v.TableFrame()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *View) touch() {
	now := v.deps.Clock.Now()
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

// force renders without consulting the gate. Interactions that only change view-local state
// use it.
func (v *View) force() {
	now := v.deps.Clock.Now()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.deps.Metrics.ObserveRenderDecision(metrics.OutcomeForced)
	v.renderLocked(now)
}

// renderLocked computes a frame from a single snapshot of nodes, rect and geometry.
func (v *View) renderLocked(now time.Time) {
	started := time.Now()
	defer func() { v.deps.Metrics.ObserveRenderPassDuration(time.Since(started)) }()

	nodes := v.deps.Store.Nodes(v.subscribed)
	rect := v.sizer.Rect()

	next := v.frame
	next.Rect = rect
	next.Subscribed = v.subscribed
	next.NodeCount = len(nodes)
	next.Filter = v.filter.QueryText()
	next.RenderedAt = now
	next.Pass++

	loc := geometryLocator{container: &v.container, rect: rect, bus: v.bus}
	pass, err := projection.ProjectAll(nodes, loc, v.opts.Tiers, v.filter.IsFocused)
	switch {
	case err == nil:
		next.Markers = pass.Markers
		next.Skipped = pass.Skipped
		next.MarkersStale = false
		v.deps.Metrics.AddMarkersSkipped(pass.Skipped)
	case errors.Is(err, projection.ErrNoContainer):
		// Keep the last good markers; the next pass retries.
		next.MarkersStale = true
		v.deps.Metrics.IncProjectionAbort()
		v.log.Debug().Err(err).Msg("marker projection skipped")
	default:
		next.MarkersStale = true
		v.log.Error().Err(err).Msg("marker projection failed")
	}

	cols := columns.Enabled(v.deps.Settings.Current())
	snap, err := v.table.Update(nodes, v.sort, cols, now)
	if err != nil {
		v.log.Error().Err(err).Str("sort", v.sort.Key).Msg("table update failed")
	} else {
		next.Table = snap
	}

	next.Chains = visibleset.Cap(v.deps.Store.Chains(), v.opts.VisibleCap)
	v.frame = next
}

// geometryLocator prefers the measured container. Without a measurement it falls back to the
// map rectangle, which is what the client lays the container out with.
type geometryLocator struct {
	container *projection.Container
	rect      viewport.MapRect
	bus       *viewport.Bus
}

func (l geometryLocator) Locate() (projection.ContainerGeometry, error) {
	if g, err := l.container.Locate(); err == nil {
		return g, nil
	}
	vp, ok := l.bus.Current()
	if !ok || l.rect.Width <= 0 || l.rect.Height <= 0 {
		return projection.ContainerGeometry{}, projection.ErrNoContainer
	}
	return projection.ContainerGeometry{
		Width:       float64(l.rect.Width),
		Height:      float64(l.rect.Height),
		OffsetLeft:  float64(l.rect.Left),
		ScreenWidth: vp.Width,
	}, nil
}
