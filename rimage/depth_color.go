package rimage

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DepthToColor renders a depth map as a hue ramp from red (near) to blue (far) between the
// smallest and largest valid depths. Pixels without a valid depth are black.
func DepthToColor(dm *DepthMap) *BGRImage {
	out := NewBGRImage(dm.Width(), dm.Height())
	lo, hi, ok := dm.MinMax()
	if !ok {
		return out
	}
	span := float64(hi - lo)
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			d := dm.GetDepth(x, y)
			if !(d > 0) || math.IsInf(float64(d), 0) {
				continue
			}
			ratio := 0.
			if span > 0 {
				ratio = float64(d-lo) / span
			}
			r, g, b := colorful.Hsv(240*ratio, 1, 1).RGB255()
			out.SetBGR(x, y, b, g, r)
		}
	}
	return out
}
