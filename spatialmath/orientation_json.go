package spatialmath

import (
	"encoding/json"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationType defines what orientation representations are known.
type OrientationType string

// The set of allowed representations for orientation.
const (
	NoOrientation      = OrientationType("")
	AxisAnglesType     = OrientationType("axis_angles")
	QuaternionType     = OrientationType("quaternion")
	RotationMatrixType = OrientationType("rotation_matrix")
)

// RawOrientation holds the underlying type of orientation, and the value.
type RawOrientation struct {
	Type  OrientationType `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseOrientation will use the Type in RawOrientation to unmarshal the Value into the correct struct that implements Orientation.
func ParseOrientation(ro RawOrientation) (Orientation, error) {
	switch ro.Type {
	case NoOrientation:
		return NewZeroOrientation(), nil
	case AxisAnglesType:
		var o R4AA
		if err := json.Unmarshal(ro.Value, &o); err != nil {
			return nil, err
		}
		return &o, nil
	case QuaternionType:
		var o quaternionJSON
		if err := json.Unmarshal(ro.Value, &o); err != nil {
			return nil, err
		}
		q := quat.Number{Real: o.W, Imag: o.X, Jmag: o.Y, Kmag: o.Z}
		if norm := quat.Abs(q); norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, newQuaternionNormError(q)
		}
		return NewQuaternion(o.W, o.X, o.Y, o.Z), nil
	case RotationMatrixType:
		var m []float64
		if err := json.Unmarshal(ro.Value, &m); err != nil {
			return nil, err
		}
		return NewRotationMatrix(m)
	default:
		return nil, newOrientationTypeUnsupportedError(string(ro.Type))
	}
}

// PoseConfig is the JSON form of a camera to world pose.
type PoseConfig struct {
	Translation r3.Vector       `json:"translation"`
	Orientation *RawOrientation `json:"orientation,omitempty"`
}

// ParseConfig converts a PoseConfig into a Pose.
func (config *PoseConfig) ParseConfig() (Pose, error) {
	if config == nil {
		return NewZeroPose(), nil
	}
	if config.Orientation == nil {
		return NewPoseFromPoint(config.Translation), nil
	}
	o, err := ParseOrientation(*config.Orientation)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse pose orientation")
	}
	return NewPose(config.Translation, o), nil
}
