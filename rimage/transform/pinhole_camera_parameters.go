// Package transform contains the pinhole camera model used to turn pixels into rays.
package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
// A zero Width and Height means the size is not pinned and is taken from the images.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width < 0 || params.Height < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if !(params.Fx > 0) || math.IsInf(params.Fx, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if !(params.Fy > 0) || math.IsInf(params.Fy, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if math.IsNaN(params.Ppx) || math.IsInf(params.Ppx, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if math.IsNaN(params.Ppy) || math.IsInf(params.Ppy, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// CheckSize returns an error when the intrinsics pin a size different from width x height.
func (params *PinholeCameraIntrinsics) CheckSize(width, height int) error {
	if params.Width == 0 && params.Height == 0 {
		return nil
	}
	if params.Width != width || params.Height != height {
		return errors.Errorf("image dimension and intrinsics don't match Image(%d,%d) != Intrinsics(%d,%d)",
			width, height, params.Width, params.Height)
	}
	return nil
}

// PixelToRay returns the unit length ray through the pixel at (x, y), with +Z along the optical axis.
func (params *PinholeCameraIntrinsics) PixelToRay(x, y float64) r3.Vector {
	return r3.Vector{
		X: (x - params.Ppx) / params.Fx,
		Y: (y - params.Ppy) / params.Fy,
		Z: 1,
	}.Normalize()
}
