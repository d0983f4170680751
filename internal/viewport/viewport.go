package viewport

import "math"

const (
	DefaultMapRatio     = 390.0 / 350.0
	DefaultHeaderHeight = 148
	DefaultMinWidth     = 1350
)

// Viewport is the size of the client's browser window in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapRect is the rectangle the world map is drawn into.
type MapRect struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Top    int `json:"top"`
	Left   int `json:"left"`
}

type Constants struct {
	MapRatio     float64
	HeaderHeight float64
	MinWidth     float64
}

func DefaultConstants() Constants {
	return Constants{
		MapRatio:     DefaultMapRatio,
		HeaderHeight: DefaultHeaderHeight,
		MinWidth:     DefaultMinWidth,
	}
}

// ComputeRect fits a MapRatio rectangle into the viewport below the header.
//
// The width is floored to MinWidth before the ratio is compared, so on narrow screens the
// rectangle may be wider than the viewport. Centring offsets that would be negative are
// clamped to 0.
func ComputeRect(vp Viewport, c Constants) MapRect {
	if c.MapRatio <= 0 {
		c.MapRatio = DefaultMapRatio
	}

	width := math.Max(c.MinWidth, vp.Width)
	height := vp.Height - c.HeaderHeight
	if height <= 0 {
		return MapRect{Width: roundHalfUp(width)}
	}

	var rect MapRect
	if width/height >= c.MapRatio {
		rect.Width = roundHalfUp(height * c.MapRatio)
		rect.Height = roundHalfUp(height)
		rect.Left = clampOffset(roundHalfUp((width - float64(rect.Width)) / 2))
	} else {
		rect.Width = roundHalfUp(width)
		rect.Height = roundHalfUp(width / c.MapRatio)
		rect.Top = clampOffset(roundHalfUp((height - float64(rect.Height)) / 2))
	}
	return rect
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampOffset(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
