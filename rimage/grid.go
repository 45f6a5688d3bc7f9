// Package rimage holds the per-pixel grids produced by the depth estimator and the images
// rendered from them.
package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// ErrDimensionMismatch is returned when grids that must describe the same pixels disagree in size.
var ErrDimensionMismatch = errors.New("grid dimensions do not match")

// Bounded is anything laid out over a rectangle of pixels.
type Bounded interface {
	Bounds() image.Rectangle
}

// NamedBounds pairs a grid with the name used to report a mismatch.
type NamedBounds struct {
	Name string
	Grid Bounded
}

// CheckSameBounds verifies every grid covers exactly the same pixels as the first one.
func CheckSameBounds(grids ...NamedBounds) error {
	if len(grids) == 0 {
		return nil
	}
	ref := grids[0]
	for _, g := range grids[1:] {
		if g.Grid.Bounds() != ref.Grid.Bounds() {
			return errors.Wrapf(ErrDimensionMismatch, "%s is %v but %s is %v",
				g.Name, g.Grid.Bounds(), ref.Name, ref.Grid.Bounds())
		}
	}
	return nil
}

// grid is a row-major width x height array with bounds-checked access.
type grid[T any] struct {
	width  int
	height int
	data   []T
}

func newGrid[T any](width, height int) grid[T] {
	if width < 0 || height < 0 {
		panic(errors.Errorf("invalid grid size %dx%d", width, height))
	}
	return grid[T]{width: width, height: height, data: make([]T, width*height)}
}

func newGridFromData[T any](width, height int, data []T) (grid[T], error) {
	if width < 0 || height < 0 {
		return grid[T]{}, errors.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(data) != width*height {
		return grid[T]{}, errors.Wrapf(ErrDimensionMismatch, "have %d values for a %dx%d grid", len(data), width, height)
	}
	return grid[T]{width: width, height: height, data: data}, nil
}

// Width returns the number of columns.
func (g *grid[T]) Width() int {
	return g.width
}

// Height returns the number of rows.
func (g *grid[T]) Height() int {
	return g.height
}

// Bounds returns the pixel rectangle, always anchored at the origin.
func (g *grid[T]) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.width, g.height)
}

// Contains returns whether (x, y) is inside the grid.
func (g *grid[T]) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *grid[T]) kxy(x, y int) int {
	if !g.Contains(x, y) {
		panic(errors.Errorf("pixel (%d, %d) is outside of %dx%d grid", x, y, g.width, g.height))
	}
	return (y * g.width) + x
}

func (g *grid[T]) at(x, y int) T {
	return g.data[g.kxy(x, y)]
}

func (g *grid[T]) set(x, y int, v T) {
	g.data[g.kxy(x, y)] = v
}

func (g *grid[T]) fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

func (g *grid[T]) clone() grid[T] {
	data := make([]T, len(g.data))
	copy(data, g.data)
	return grid[T]{width: g.width, height: g.height, data: data}
}
