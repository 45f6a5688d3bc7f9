package spatialmath

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// ErrNilPose is returned when a transform is requested of a pose that does not exist.
var ErrNilPose = errors.New("pose is nil")

func newRotationMatrixInputError(m []float64) error {
	return errors.Errorf("input slice has %d elements, need exactly 9", len(m))
}

func newOrientationTypeUnsupportedError(orientationType string) error {
	return errors.Errorf("orientation type %q not supported", orientationType)
}

func newQuaternionNormError(q quat.Number) error {
	return errors.Errorf("quaternion %v cannot be normalized to a rotation", q)
}
