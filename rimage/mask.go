package rimage

import (
	"image"
)

// Mask marks which pixels may be used. A value of 1 is usable, anything else is excluded.
type Mask struct {
	grid[uint8]
}

// NewMask returns a mask with every pixel excluded.
func NewMask(width, height int) *Mask {
	return &Mask{newGrid[uint8](width, height)}
}

// NewMaskFromGray makes a mask in which the nonzero pixels of gray are usable. The mask is
// anchored at the origin whatever the bounds of gray.
func NewMaskFromGray(gray *image.Gray) *Mask {
	b := gray.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				m.data[y*m.width+x] = 1
			}
		}
	}
	return m
}

// Get returns the raw value at (x, y).
func (m *Mask) Get(x, y int) uint8 {
	return m.at(x, y)
}

// Set sets the raw value at (x, y).
func (m *Mask) Set(x, y int, v uint8) {
	m.set(x, y, v)
}

// Fill sets every pixel to v.
func (m *Mask) Fill(v uint8) {
	m.fill(v)
}

// Valid returns whether the pixel at (x, y) is usable.
func (m *Mask) Valid(x, y int) bool {
	return m.at(x, y) == 1
}

// Clone makes a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{m.clone()}
}
