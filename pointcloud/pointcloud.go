package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns meta data with inverted bounds, ready to Merge into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge grows the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
}

// Cloud is an ordered set of intensity points. Order is the raster order of the pixels the points
// were projected from.
type Cloud struct {
	Points []Point
}

// NewCloud returns an empty cloud with room for capacity points.
func NewCloud(capacity int) *Cloud {
	return &Cloud{Points: make([]Point, 0, capacity)}
}

// Append adds p at the end of the cloud.
func (c *Cloud) Append(p Point) {
	c.Points = append(c.Points, p)
}

// Size returns the number of points in the cloud.
func (c *Cloud) Size() int {
	return len(c.Points)
}

// Empty returns whether the cloud has no points.
func (c *Cloud) Empty() bool {
	return len(c.Points) == 0
}

// MetaData returns the bounds of the cloud.
func (c *Cloud) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range c.Points {
		meta.Merge(p.Position)
	}
	return meta
}

// ColoredCloud is an ordered set of colored points.
type ColoredCloud struct {
	Points []ColoredPoint
}

// NewColoredCloud returns an empty colored cloud with room for capacity points.
func NewColoredCloud(capacity int) *ColoredCloud {
	return &ColoredCloud{Points: make([]ColoredPoint, 0, capacity)}
}

// Append adds p at the end of the cloud.
func (c *ColoredCloud) Append(p ColoredPoint) {
	c.Points = append(c.Points, p)
}

// Size returns the number of points in the cloud.
func (c *ColoredCloud) Size() int {
	return len(c.Points)
}

// Empty returns whether the cloud has no points.
func (c *ColoredCloud) Empty() bool {
	return len(c.Points) == 0
}

// MetaData returns the bounds of the cloud.
func (c *ColoredCloud) MetaData() MetaData {
	meta := NewMetaData()
	meta.HasColor = true
	for _, p := range c.Points {
		meta.Merge(p.Position)
	}
	return meta
}
