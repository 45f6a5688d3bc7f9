// Package projection back-projects converged depth pixels into world frame point clouds.
package projection

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthpub/depthstate"
	"go.viam.com/depthpub/pointcloud"
	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/utils"
)

type options struct {
	parallel bool
}

// An Option changes how a projection runs. Options never change the result.
type Option func(*options)

// WithParallel splits the image into bands of rows worked concurrently.
func WithParallel(parallel bool) Option {
	return func(o *options) {
		o.parallel = parallel
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Project returns one point per converged pixel, in raster order, carrying the gray value of the
// pixel. The snapshot is only read.
func Project(snap *depthstate.Snapshot, opts ...Option) (*pointcloud.Cloud, error) {
	if err := snap.ValidateGray(); err != nil {
		return nil, errors.Wrap(err, "cannot project depth map")
	}
	gray := snap.Gray
	points := projectRows(snap, newOptions(opts),
		func(x, y int) bool { return snap.Convergence.Get(x, y) == rimage.Converged },
		func(x, y int, pos r3.Vector) pointcloud.Point {
			return pointcloud.Point{Position: pos, Intensity: gray.Pix[y*gray.Stride+x]}
		})
	return &pointcloud.Cloud{Points: points}, nil
}

// ProjectColored returns one point per converged pixel that the mask allows, in raster order,
// carrying the packed color of the pixel. Without a mask every converged pixel is kept. The
// snapshot must carry a color image.
func ProjectColored(snap *depthstate.Snapshot, opts ...Option) (*pointcloud.ColoredCloud, error) {
	if err := snap.ValidateColor(); err != nil {
		return nil, errors.Wrap(err, "cannot project colored depth map")
	}
	color, mask := snap.Color, snap.Mask
	points := projectRows(snap, newOptions(opts),
		func(x, y int) bool {
			return snap.Convergence.Get(x, y) == rimage.Converged && (mask == nil || mask.Valid(x, y))
		},
		func(x, y int, pos r3.Vector) pointcloud.ColoredPoint {
			b, g, r := color.BGRAt(x, y)
			return pointcloud.ColoredPoint{Position: pos, RGB: pointcloud.PackRGB(r, g, b)}
		})
	return &pointcloud.ColoredCloud{Points: points}, nil
}

// projectRows walks the validated snapshot row by row. Rows are split into contiguous bands when
// running in parallel and the bands are joined in order, so the output is the same either way.
func projectRows[P any](
	snap *depthstate.Snapshot,
	o options,
	keep func(x, y int) bool,
	makePoint func(x, y int, pos r3.Vector) P,
) []P {
	width, height := snap.Depth.Width(), snap.Depth.Height()
	intrinsics, pose := snap.Intrinsics, snap.WorldFromCamera

	doRow := func(y int, dst []P) []P {
		for x := 0; x < width; x++ {
			if !keep(x, y) {
				continue
			}
			ray := intrinsics.PixelToRay(float64(x), float64(y))
			camPt := ray.Mul(float64(snap.Depth.GetDepth(x, y)))
			dst = append(dst, makePoint(x, y, pose.Transform(camPt)))
		}
		return dst
	}

	if !o.parallel || height < 2 {
		points := make([]P, 0, snap.Convergence.Count(rimage.Converged))
		for y := 0; y < height; y++ {
			points = doRow(y, points)
		}
		return points
	}

	var bands [][]P
	// background context is never done
	_ = utils.GroupWorkParallel(
		context.Background(),
		height,
		func(numGroups int) {
			bands = make([][]P, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			var band []P
			return func(memberNum, y int) {
					band = doRow(y, band)
				}, func() {
					bands[groupNum] = band
				}
		},
	)

	total := 0
	for _, band := range bands {
		total += len(band)
	}
	points := make([]P, 0, total)
	for _, band := range bands {
		points = append(points, band...)
	}
	return points
}
