// Package depthstate holds the shared output of the depth estimator and the exclusive access used
// to read it consistently.
package depthstate

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/rimage/transform"
	"go.viam.com/depthpub/spatialmath"
)

// ErrIncompleteSnapshot is returned when a snapshot lacks something a caller needs.
var ErrIncompleteSnapshot = errors.New("depth snapshot is incomplete")

func newIncompleteSnapshotError(what string) error {
	return errors.Wrapf(ErrIncompleteSnapshot, "missing %s", what)
}

// A Snapshot is one consistent view of the estimator state. It carries a gray reference image, a
// color one, or both. Mask is optional; every grid present covers the same pixels.
type Snapshot struct {
	Depth       *rimage.DepthMap
	Convergence *rimage.ConvergenceMap
	Gray        *image.Gray
	Color       *rimage.BGRImage
	Mask        *rimage.Mask

	// WorldFromCamera maps points in the camera frame (Z forward) into the world frame.
	WorldFromCamera spatialmath.Pose
	Intrinsics      *transform.PinholeCameraIntrinsics
}

// Validate checks that the depth and convergence maps and the pose are present, the intrinsics are
// usable and every grid present has the same dimensions. Which reference image is needed depends
// on the caller; see ValidateGray and ValidateColor.
func (s *Snapshot) Validate() error {
	if s == nil {
		return newIncompleteSnapshotError("snapshot")
	}
	if s.Depth == nil {
		return newIncompleteSnapshotError("depth map")
	}
	if s.Convergence == nil {
		return newIncompleteSnapshotError("convergence map")
	}
	if s.WorldFromCamera == nil {
		return errors.Wrap(spatialmath.ErrNilPose, "world from camera")
	}
	if err := s.Intrinsics.CheckValid(); err != nil {
		return err
	}
	grids := []rimage.NamedBounds{
		{Name: "depth", Grid: s.Depth},
		{Name: "convergence", Grid: s.Convergence},
	}
	if s.Gray != nil {
		grids = append(grids, rimage.NamedBounds{Name: "gray", Grid: s.Gray})
	}
	if s.Color != nil {
		grids = append(grids, rimage.NamedBounds{Name: "color", Grid: s.Color})
	}
	if s.Mask != nil {
		grids = append(grids, rimage.NamedBounds{Name: "mask", Grid: s.Mask})
	}
	if err := rimage.CheckSameBounds(grids...); err != nil {
		return err
	}
	return s.Intrinsics.CheckSize(s.Depth.Width(), s.Depth.Height())
}

// ValidateGray is Validate for callers that read the gray reference image.
func (s *Snapshot) ValidateGray() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Gray == nil {
		return newIncompleteSnapshotError("gray reference image")
	}
	return nil
}

// ValidateColor is Validate for callers that read the color reference image.
func (s *Snapshot) ValidateColor() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Color == nil {
		return newIncompleteSnapshotError("color reference image")
	}
	return nil
}

// HasColor reports whether a colored point cloud can be made from the snapshot.
func (s *Snapshot) HasColor() bool {
	return s != nil && s.Color != nil
}

// Clone deep copies every grid. The pose and intrinsics are values and are shared.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		WorldFromCamera: s.WorldFromCamera,
	}
	if s.Depth != nil {
		c.Depth = s.Depth.Clone()
	}
	if s.Convergence != nil {
		c.Convergence = s.Convergence.Clone()
	}
	if s.Gray != nil {
		gray := *s.Gray
		gray.Pix = append([]uint8(nil), s.Gray.Pix...)
		c.Gray = &gray
	}
	if s.Color != nil {
		c.Color = s.Color.Clone()
	}
	if s.Mask != nil {
		c.Mask = s.Mask.Clone()
	}
	if s.Intrinsics != nil {
		intr := *s.Intrinsics
		c.Intrinsics = &intr
	}
	return c
}
