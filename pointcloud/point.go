// Package pointcloud defines the ordered point sets produced by back-projecting a depth map.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Point is a world frame position together with the gray intensity of the pixel it came from.
type Point struct {
	Position  r3.Vector
	Intensity uint8
}

// ColoredPoint is a world frame position with its color packed into a float slot. See PackRGB.
type ColoredPoint struct {
	Position r3.Vector
	RGB      float32
}

// RGB255 returns the unpacked color of the point.
func (p ColoredPoint) RGB255() (uint8, uint8, uint8) {
	return UnpackRGB(p.RGB)
}

// PackRGBInt packs a color as 0x00RRGGBB.
func PackRGBInt(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGBInt is the inverse of PackRGBInt. The top byte is ignored.
func UnpackRGBInt(c uint32) (uint8, uint8, uint8) {
	return uint8(0xFF & (c >> 16)), uint8(0xFF & (c >> 8)), uint8(0xFF & c)
}

// PackRGB stores the 0x00RRGGBB packing of a color in the bits of a float32, the layout used by
// the rgb field of PCL style point clouds. The result is a bit cast and not a numeric value; do
// not do arithmetic on it.
func PackRGB(r, g, b uint8) float32 {
	return math.Float32frombits(PackRGBInt(r, g, b))
}

// UnpackRGB is the inverse of PackRGB.
func UnpackRGB(f float32) (uint8, uint8, uint8) {
	return UnpackRGBInt(math.Float32bits(f))
}
