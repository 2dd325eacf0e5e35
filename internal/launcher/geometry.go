package launcher

import (
	"math"

	"github.com/1broseidon/winlaunch/internal/platform"
)

// Geometry is the initial inner geometry of the window. It is computed once
// per launch and never persisted.
type Geometry struct {
	Width    int
	Height   int
	MinWidth int
	Left     int
	Top      int
}

// ComputeGeometry sizes the window at minWidth wide with the given aspect
// ratio and centres it in area.
func ComputeGeometry(minWidth int, aspectRatio float64, area platform.Rect) Geometry {
	height := roundHalfUp(float64(minWidth) / aspectRatio)
	return Geometry{
		Width:    minWidth,
		Height:   height,
		MinWidth: minWidth,
		Left:     area.X + roundHalfUp(float64(area.Width-minWidth)/2),
		Top:      area.Y + roundHalfUp(float64(area.Height-height)/2),
	}
}

// Bounds converts g into a creation request.
func (g Geometry) Bounds() platform.Bounds {
	return platform.Bounds{
		Left:     g.Left,
		Top:      g.Top,
		Width:    g.Width,
		Height:   g.Height,
		MinWidth: g.MinWidth,
	}
}

// roundHalfUp rounds .5 towards positive infinity, so a screen narrower than
// the window still centres consistently.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
