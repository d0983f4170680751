package projection

import (
	"errors"
	"math"
	"sort"
)

// ErrNoContainer is returned when the geometry of the map container is not known. A pass
// that hits it produces no positions at all.
var ErrNoContainer = errors.New("projection: map container geometry unavailable")

// Quarter is a two-bit hemisphere flag: bit 0 is set east of the prime meridian, bit 1 south
// of the equator. Renderers use it to flip tooltips so they stay on screen.
type Quarter uint8

const (
	QuarterNorthWest Quarter = 0
	QuarterNorthEast Quarter = 1
	QuarterSouthWest Quarter = 2
	QuarterSouthEast Quarter = 3
)

func (q Quarter) East() bool  { return q&1 != 0 }
func (q Quarter) South() bool { return q&2 != 0 }

// PixelPosition is where a marker is placed, in page pixels.
type PixelPosition struct {
	Left    int     `json:"left"`
	Top     int     `json:"top"`
	Quarter Quarter `json:"quarter"`
}

// ContainerGeometry is the rendered size and horizontal page offset of the map container,
// together with the width of the screen it is displayed on.
type ContainerGeometry struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	OffsetLeft  float64 `json:"offset_left"`
	ScreenWidth float64 `json:"screen_width"`
}

// Tier applies Adjust pixels of vertical offset on screens wider than MinScreenWidth.
type Tier struct {
	MinScreenWidth float64 `mapstructure:"min_screen_width" json:"min_screen_width"`
	Adjust         float64 `mapstructure:"adjust" json:"adjust"`
}

// Tiers compensates for the header height, which changes with the screen width. The first
// tier whose MinScreenWidth is exceeded wins; Fallback applies below all of them.
type Tiers struct {
	Steps    []Tier
	Fallback float64
}

func DefaultTiers() Tiers {
	return Tiers{
		Steps: []Tier{
			{MinScreenWidth: 1150, Adjust: 40},
			{MinScreenWidth: 650, Adjust: 40},
			{MinScreenWidth: 500, Adjust: 30},
			{MinScreenWidth: 400, Adjust: 22},
		},
		Fallback: 20,
	}
}

// NewTiers orders steps from the widest breakpoint down.
func NewTiers(steps []Tier, fallback float64) Tiers {
	sorted := make([]Tier, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScreenWidth > sorted[j].MinScreenWidth })
	return Tiers{Steps: sorted, Fallback: fallback}
}

// VerticalAdjustment returns the offset for the given screen width.
func (t Tiers) VerticalAdjustment(screenWidth float64) float64 {
	for _, step := range t.Steps {
		if screenWidth > step.MinScreenWidth {
			return step.Adjust
		}
	}
	return t.Fallback
}

// QuarterOf depends only on the signs of the coordinates.
func QuarterOf(lat, lon float64) Quarter {
	var q Quarter
	if lon > 0 {
		q |= 1
	}
	if lat < 0 {
		q |= 2
	}
	return q
}

// Project maps a coordinate onto the container. Longitude runs -180 (west) to +180 (east)
// across the width; latitude runs +90 (north) to -90 (south) down the height.
func Project(lat, lon float64, g ContainerGeometry, tiers Tiers) PixelPosition {
	left := ((180+lon)/360)*g.Width + g.OffsetLeft
	top := ((90-lat)/180)*g.Height + tiers.VerticalAdjustment(g.ScreenWidth)

	return PixelPosition{
		Left:    roundHalfUp(left),
		Top:     roundHalfUp(top),
		Quarter: QuarterOf(lat, lon),
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
