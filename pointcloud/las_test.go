package pointcloud

import (
	"path/filepath"
	"testing"

	"github.com/edaniels/lidario"
	"go.viam.com/test"
)

func readLAS(t *testing.T, fn string) *lidario.LasFile {
	t.Helper()
	lf, err := lidario.NewLasFile(fn, "r")
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { lf.Close() })
	return lf
}

func TestWriteToLASFile(t *testing.T) {
	cloud := NewCloud(2)
	cloud.Append(Point{Position: NewVector(1.5, -2, 3), Intensity: 255})
	cloud.Append(Point{Position: NewVector(0, 0.25, 10), Intensity: 1})

	fn := filepath.Join(t.TempDir(), "cloud.las")
	test.That(t, WriteToLASFile(cloud, fn), test.ShouldBeNil)

	lf := readLAS(t, fn)
	test.That(t, lf.Header.NumberPoints, test.ShouldEqual, 2)
	test.That(t, lf.Header.PointFormatID, test.ShouldEqual, byte(0))
	p, err := lf.LasPoint(0)
	test.That(t, err, test.ShouldBeNil)
	data := p.PointData()
	test.That(t, data.X, test.ShouldAlmostEqual, 1.5, 1e-3)
	test.That(t, data.Y, test.ShouldAlmostEqual, -2, 1e-3)
	test.That(t, data.Z, test.ShouldAlmostEqual, 3, 1e-3)
	test.That(t, data.Intensity, test.ShouldEqual, uint16(65535))
}

func TestWriteColoredToLASFile(t *testing.T) {
	cloud := NewColoredCloud(1)
	cloud.Append(ColoredPoint{Position: NewVector(4, 5, 6), RGB: PackRGB(10, 20, 30)})

	fn := filepath.Join(t.TempDir(), "colored.las")
	test.That(t, WriteColoredToLASFile(cloud, fn), test.ShouldBeNil)

	lf := readLAS(t, fn)
	test.That(t, lf.Header.NumberPoints, test.ShouldEqual, 1)
	test.That(t, lf.Header.PointFormatID, test.ShouldEqual, byte(2))
	p, err := lf.LasPoint(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.PointData().Z, test.ShouldAlmostEqual, 6, 1e-3)
	rgb := p.RgbData()
	test.That(t, rgb, test.ShouldNotBeNil)
	test.That(t, []uint16{rgb.Red / 256, rgb.Green / 256, rgb.Blue / 256}, test.ShouldResemble, []uint16{10, 20, 30})
}
