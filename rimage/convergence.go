package rimage

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// ConvergenceState classifies how far the depth estimate at a pixel has settled.
type ConvergenceState int32

// The states reported by the depth estimator. Only Converged and Diverged are acted upon; every
// other value, including ones not listed here, counts as pending.
const (
	Update ConvergenceState = iota
	Converged
	Border
	Diverged
	NoMatch
	NotVisible
)

func (s ConvergenceState) String() string {
	switch s {
	case Update:
		return "update"
	case Converged:
		return "converged"
	case Border:
		return "border"
	case Diverged:
		return "diverged"
	case NoMatch:
		return "no_match"
	case NotVisible:
		return "not_visible"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// ConvergenceMap holds one ConvergenceState per pixel.
type ConvergenceMap struct {
	grid[ConvergenceState]
}

// NewConvergenceMap returns a map with every pixel in the Update state.
func NewConvergenceMap(width, height int) *ConvergenceMap {
	return &ConvergenceMap{newGrid[ConvergenceState](width, height)}
}

// NewConvergenceMapFromData wraps row-major states. The map takes ownership of data.
func NewConvergenceMapFromData(width, height int, data []ConvergenceState) (*ConvergenceMap, error) {
	g, err := newGridFromData(width, height, data)
	if err != nil {
		return nil, err
	}
	return &ConvergenceMap{g}, nil
}

// Get returns the state at (x, y). It panics when the pixel is out of bounds.
func (cm *ConvergenceMap) Get(x, y int) ConvergenceState {
	return cm.at(x, y)
}

// Set sets the state at (x, y).
func (cm *ConvergenceMap) Set(x, y int, s ConvergenceState) {
	cm.set(x, y, s)
}

// Fill sets every pixel to s.
func (cm *ConvergenceMap) Fill(s ConvergenceState) {
	cm.fill(s)
}

// Clone makes a deep copy of the map.
func (cm *ConvergenceMap) Clone() *ConvergenceMap {
	return &ConvergenceMap{cm.clone()}
}

// Count returns how many pixels are in state s.
func (cm *ConvergenceMap) Count(s ConvergenceState) int {
	n := 0
	for _, v := range cm.data {
		if v == s {
			n++
		}
	}
	return n
}

// RenderConvergence draws the reference image in gray and tints converged pixels blue and
// diverged pixels red by saturating their channel. Other pixels keep their gray value.
func RenderConvergence(conv *ConvergenceMap, gray *image.Gray) (*BGRImage, error) {
	if conv == nil {
		return nil, errors.New("no convergence map. Cannot render")
	}
	if gray == nil {
		return nil, errors.New("no reference image. Cannot render")
	}
	if err := CheckSameBounds(
		NamedBounds{"convergence", conv},
		NamedBounds{"reference image", gray},
	); err != nil {
		return nil, err
	}

	colored := GrayToBGR(gray)
	for y := 0; y < conv.Height(); y++ {
		for x := 0; x < conv.Width(); x++ {
			i := colored.PixOffset(x, y)
			switch conv.Get(x, y) {
			case Converged:
				colored.Pix[i] = 255
			case Diverged:
				colored.Pix[i+2] = 255
			default:
			}
		}
	}
	return colored, nil
}
