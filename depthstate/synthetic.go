package depthstate

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/rimage/transform"
	"go.viam.com/depthpub/spatialmath"
)

// PlaneParams describes a synthetic scene: a plane seen by a camera, for demos and tests.
type PlaneParams struct {
	Intrinsics      *transform.PinholeCameraIntrinsics
	WorldFromCamera spatialmath.Pose
	// Depth at the top row and its increase per row, so the plane tilts away from the camera.
	BaseDepth  float32
	DepthSlope float32
	// Every DivergedEvery-th pixel diverges and every PendingEvery-th pixel is still updating.
	// Zero disables either.
	DivergedEvery int
	PendingEvery  int
	Colored       bool
	// Mask marks with nonzero values the pixels usable for colored points. It must match the
	// intrinsics size. Nil keeps the left half.
	Mask *image.Gray
}

// SyntheticPlane renders params into a snapshot sized by the intrinsics.
func SyntheticPlane(params PlaneParams) (*Snapshot, error) {
	if err := params.Intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	width, height := params.Intrinsics.Width, params.Intrinsics.Height
	if params.Mask != nil {
		if b := params.Mask.Bounds(); b.Dx() != width || b.Dy() != height {
			return nil, errors.Wrapf(rimage.ErrDimensionMismatch, "mask is %dx%d but the camera is %dx%d",
				b.Dx(), b.Dy(), width, height)
		}
	}
	pose := params.WorldFromCamera
	if pose == nil {
		pose = spatialmath.NewPoseFromPoint(r3.Vector{})
	}

	snap := &Snapshot{
		Depth:           rimage.NewEmptyDepthMap(width, height),
		Convergence:     rimage.NewConvergenceMap(width, height),
		Gray:            image.NewGray(image.Rect(0, 0, width, height)),
		WorldFromCamera: pose,
		Intrinsics:      params.Intrinsics,
	}
	if params.Colored {
		snap.Color = rimage.NewBGRImage(width, height)
		if params.Mask != nil {
			snap.Mask = rimage.NewMaskFromGray(params.Mask)
		} else {
			snap.Mask = rimage.NewMask(width, height)
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			snap.Depth.Set(x, y, params.BaseDepth+params.DepthSlope*float32(y))

			state := rimage.Converged
			switch {
			case params.DivergedEvery > 0 && i%params.DivergedEvery == 0:
				state = rimage.Diverged
			case params.PendingEvery > 0 && i%params.PendingEvery == 0:
				state = rimage.Update
			}
			snap.Convergence.Set(x, y, state)

			snap.Gray.Pix[y*snap.Gray.Stride+x] = uint8((x + y) % 256)
			if params.Colored {
				snap.Color.SetBGR(x, y, uint8(y%256), uint8((x*y)%256), uint8(x%256))
				if params.Mask == nil && x < width/2 {
					snap.Mask.Set(x, y, 1)
				}
			}
		}
	}
	return snap, nil
}
