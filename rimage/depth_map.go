package rimage

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// DepthMap is a float32 depth per pixel, measured along the optical axis.
type DepthMap struct {
	grid[float32]
}

// NewEmptyDepthMap returns an unset depth map with the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{newGrid[float32](width, height)}
}

// NewDepthMapFromData wraps row-major depth values. The map takes ownership of data.
func NewDepthMapFromData(width, height int, data []float32) (*DepthMap, error) {
	g, err := newGridFromData(width, height, data)
	if err != nil {
		return nil, err
	}
	return &DepthMap{g}, nil
}

// GetDepth returns the depth at (x, y). It panics when the pixel is out of bounds.
func (dm *DepthMap) GetDepth(x, y int) float32 {
	return dm.at(x, y)
}

// Set sets the depth at (x, y).
func (dm *DepthMap) Set(x, y int, val float32) {
	dm.set(x, y, val)
}

// Fill sets every pixel to val.
func (dm *DepthMap) Fill(val float32) {
	dm.fill(val)
}

// Clone makes a deep copy of the map.
func (dm *DepthMap) Clone() *DepthMap {
	return &DepthMap{dm.clone()}
}

// MinMax returns the smallest and largest finite, positive depths. ok is false when there are none.
func (dm *DepthMap) MinMax() (lo, hi float32, ok bool) {
	lo = math.MaxFloat32
	for _, d := range dm.data {
		if !(d > 0) || math.IsInf(float64(d), 0) {
			continue
		}
		ok = true
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Bytes32FC1 encodes the map as little endian float32 rows, the 32FC1 image layout.
func (dm *DepthMap) Bytes32FC1() []byte {
	out := make([]byte, 4*len(dm.data))
	for i, d := range dm.data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(d))
	}
	return out
}

// DepthMapFrom32FC1 is the inverse of Bytes32FC1.
func DepthMapFrom32FC1(width, height int, data []byte) (*DepthMap, error) {
	if len(data) != 4*width*height {
		return nil, errors.Wrapf(ErrDimensionMismatch, "have %d bytes for a %dx%d 32FC1 image", len(data), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i := range dm.data {
		dm.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return dm, nil
}
