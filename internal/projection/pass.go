package projection

import (
	"sync"

	"telemetry_map/core-go/internal/telemetry"
)

// Locator resolves the current container geometry. Implementations return ErrNoContainer when
// there is nothing to measure.
type Locator interface {
	Locate() (ContainerGeometry, error)
}

// Marker is the placement of one located node.
type Marker struct {
	NodeID  string  `json:"node_id"`
	Left    int     `json:"left"`
	Top     int     `json:"top"`
	Quarter Quarter `json:"quarter"`
	Focused bool    `json:"focused"`
}

// Pass is the output of projecting one snapshot of nodes.
type Pass struct {
	Geometry ContainerGeometry `json:"geometry"`
	Markers  []Marker          `json:"markers"`
	Skipped  int               `json:"skipped"`
}

// ProjectAll places every located node against a single geometry read. Nodes without both
// coordinates are skipped and counted. focused may be nil, in which case every marker is
// focused.
func ProjectAll(nodes []telemetry.Node, loc Locator, tiers Tiers, focused func(telemetry.Node) bool) (Pass, error) {
	if loc == nil {
		return Pass{}, ErrNoContainer
	}
	g, err := loc.Locate()
	if err != nil {
		return Pass{}, err
	}

	pass := Pass{Geometry: g, Markers: make([]Marker, 0, len(nodes))}
	for _, n := range nodes {
		if !n.Located() {
			pass.Skipped++
			continue
		}
		pos := Project(*n.Lat, *n.Lon, g, tiers)
		pass.Markers = append(pass.Markers, Marker{
			NodeID:  n.ID,
			Left:    pos.Left,
			Top:     pos.Top,
			Quarter: pos.Quarter,
			Focused: focused == nil || focused(n),
		})
	}
	return pass, nil
}

// Container is a Locator fed by measurements reported from the client.
type Container struct {
	mu       sync.Mutex
	geometry ContainerGeometry
	known    bool
}

func (c *Container) Set(g ContainerGeometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geometry = g
	c.known = g.Width > 0 && g.Height > 0
}

func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geometry = ContainerGeometry{}
	c.known = false
}

func (c *Container) Locate() (ContainerGeometry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.known {
		return ContainerGeometry{}, ErrNoContainer
	}
	return c.geometry, nil
}
