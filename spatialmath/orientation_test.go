package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.), Jmag: 0, Kmag: 0} // in quaternion representation
	aa45x = &R4AA{th, 1., 0., 0.}                                                           // in axis-angle representation
	rm45x = []float64{
		1, 0, 0,
		0, math.Cos(th), -math.Sin(th),
		0, math.Sin(th), math.Cos(th),
	}
)

func TestZeroOrientation(t *testing.T) {
	zero := NewZeroOrientation()
	test.That(t, zero.AxisAngles(), test.ShouldResemble, NewR4AA())
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1, Imag: 0, Jmag: 0, Kmag: 0})
	test.That(t, zero.RotationMatrix().Row(0), test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, zero.RotationMatrix().Row(2), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})
}

func TestQuaternions(t *testing.T) {
	qq45x := quaternion(q45x)
	test.That(t, qq45x.AxisAngles().Theta, test.ShouldAlmostEqual, aa45x.Theta)
	test.That(t, qq45x.AxisAngles().RX, test.ShouldAlmostEqual, aa45x.RX)
	test.That(t, qq45x.AxisAngles().RY, test.ShouldAlmostEqual, aa45x.RY)
	test.That(t, qq45x.AxisAngles().RZ, test.ShouldAlmostEqual, aa45x.RZ)
	for i, v := range rm45x {
		test.That(t, qq45x.RotationMatrix().At(i/3, i%3), test.ShouldAlmostEqual, v)
	}

	scaled := NewQuaternion(2*q45x.Real, 2*q45x.Imag, 0, 0)
	test.That(t, QuaternionAlmostEqual(scaled.Quaternion(), q45x, 1e-9), test.ShouldBeTrue)
	test.That(t, NewQuaternion(0, 0, 0, 0).Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
}

func TestAxisAngles(t *testing.T) {
	test.That(t, aa45x.Quaternion().Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, aa45x.Quaternion().Imag, test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, aa45x.Quaternion().Jmag, test.ShouldAlmostEqual, q45x.Jmag)
	test.That(t, aa45x.Quaternion().Kmag, test.ShouldAlmostEqual, q45x.Kmag)

	unnormalized := &R4AA{th, 3, 0, 0}
	test.That(t, QuaternionAlmostEqual(unnormalized.ToQuat(), q45x, 1e-9), test.ShouldBeTrue)
	test.That(t, (&R4AA{th, 0, 0, 0}).ToQuat(), test.ShouldResemble, quat.Number{Real: 1})

	r4 := R3ToR4(aa45x.ToR3())
	test.That(t, r4.Theta, test.ShouldAlmostEqual, th)
	test.That(t, r4.RX, test.ShouldAlmostEqual, 1)
	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
}

func TestRotationMatrix(t *testing.T) {
	rm, err := NewRotationMatrix(rm45x)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, QuaternionAlmostEqual(rm.Quaternion(), q45x, 1e-9), test.ShouldBeTrue)
	test.That(t, rm.AxisAngles().Theta, test.ShouldAlmostEqual, th)

	rotated := rm.Mul(r3.Vector{X: 0, Y: 1, Z: 0})
	test.That(t, rotated.Y, test.ShouldAlmostEqual, math.Cos(th))
	test.That(t, rotated.Z, test.ShouldAlmostEqual, math.Sin(th))

	_, err = NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldBeError, newRotationMatrixInputError([]float64{1, 0, 0}))
}

func TestOrientationBetween(t *testing.T) {
	between := OrientationBetween(NewZeroOrientation(), aa45x)
	test.That(t, OrientationAlmostEqual(between, aa45x), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(OrientationBetween(aa45x, aa45x), NewZeroOrientation()), test.ShouldBeTrue)
}

func TestParseOrientation(t *testing.T) {
	o, err := ParseOrientation(RawOrientation{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Quaternion(), test.ShouldResemble, quat.Number{Real: 1, Imag: 0, Jmag: 0, Kmag: 0})

	o, err = ParseOrientation(RawOrientation{Type: AxisAnglesType, Value: json.RawMessage(`{"th": 0.7853981633974483, "x": 1}`)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, OrientationAlmostEqual(o, aa45x), test.ShouldBeTrue)

	o, err = ParseOrientation(RawOrientation{Type: QuaternionType, Value: json.RawMessage(`{"w": 1, "x": 0, "y": 0, "z": 0}`)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, OrientationAlmostEqual(o, NewZeroOrientation()), test.ShouldBeTrue)

	o, err = ParseOrientation(RawOrientation{Type: RotationMatrixType, Value: json.RawMessage(`[1,0,0,0,1,0,0,0,1]`)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, OrientationAlmostEqual(o, NewZeroOrientation()), test.ShouldBeTrue)

	_, err = ParseOrientation(RawOrientation{Type: "oiler_angles"})
	test.That(t, err, test.ShouldBeError, newOrientationTypeUnsupportedError("oiler_angles"))

	_, err = ParseOrientation(RawOrientation{Type: QuaternionType, Value: json.RawMessage(`{"w": "one"}`)})
	test.That(t, err, test.ShouldNotBeNil)

	o, err = ParseOrientation(RawOrientation{Type: QuaternionType, Value: json.RawMessage(`{"w": 2, "x": 0, "y": 0, "z": 0}`)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Quaternion(), test.ShouldResemble, quat.Number{Real: 1, Imag: 0, Jmag: 0, Kmag: 0})

	for _, bad := range []string{`{}`, `{"w": 0, "x": 0, "y": 0, "z": 0}`} {
		_, err = ParseOrientation(RawOrientation{Type: QuaternionType, Value: json.RawMessage(bad)})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot be normalized")
	}
}
