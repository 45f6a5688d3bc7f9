package pointcloud

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"go.viam.com/test"
)

func splitPCD(t *testing.T, raw []byte) ([]string, []byte) {
	t.Helper()
	const headerLines = 10
	var lines []string
	rest := raw
	for i := 0; i < headerLines; i++ {
		idx := bytes.IndexByte(rest, '\n')
		test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, 0)
		lines = append(lines, string(rest[:idx]))
		rest = rest[idx+1:]
	}
	return lines, rest
}

func TestToPCDBinary(t *testing.T) {
	cloud := NewCloud(2)
	cloud.Append(Point{Position: NewVector(1, 2, 3), Intensity: 7})
	cloud.Append(Point{Position: NewVector(-1, 0.5, 4), Intensity: 255})

	var buf bytes.Buffer
	test.That(t, ToPCD(cloud, &buf, PCDBinary), test.ShouldBeNil)
	header, data := splitPCD(t, buf.Bytes())
	test.That(t, header, test.ShouldResemble, []string{
		"VERSION .7",
		"FIELDS x y z intensity",
		"SIZE 4 4 4 4",
		"TYPE F F F F",
		"COUNT 1 1 1 1",
		"WIDTH 2",
		"HEIGHT 1",
		"VIEWPOINT 0 0 0 1 0 0 0",
		"POINTS 2",
		"DATA binary",
	})
	test.That(t, len(data), test.ShouldEqual, 32)
	readF := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) }
	test.That(t, readF(0), test.ShouldEqual, float32(1))
	test.That(t, readF(8), test.ShouldEqual, float32(3))
	test.That(t, readF(12), test.ShouldEqual, float32(7))
	test.That(t, readF(16), test.ShouldEqual, float32(-1))
	test.That(t, readF(28), test.ShouldEqual, float32(255))
}

func TestToPCDColored(t *testing.T) {
	cloud := NewColoredCloud(1)
	cloud.Append(ColoredPoint{Position: NewVector(0, 0, 5), RGB: PackRGB(10, 20, 30)})

	var buf bytes.Buffer
	test.That(t, ToPCDColored(cloud, &buf, PCDBinary), test.ShouldBeNil)
	header, data := splitPCD(t, buf.Bytes())
	test.That(t, header[1], test.ShouldEqual, "FIELDS x y z rgb")
	test.That(t, len(data), test.ShouldEqual, 16)
	test.That(t, binary.LittleEndian.Uint32(data[12:]), test.ShouldEqual, uint32(0x000A141E))

	buf.Reset()
	test.That(t, ToPCDColored(cloud, &buf, PCDAscii), test.ShouldBeNil)
	header, data = splitPCD(t, buf.Bytes())
	test.That(t, header[3], test.ShouldEqual, "TYPE F F F U")
	test.That(t, header[9], test.ShouldEqual, "DATA ascii")
	test.That(t, strings.TrimSpace(string(data)), test.ShouldEqual, "0.000000 0.000000 5.000000 660510")
}

func TestToPCDEmptyAndCompressed(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, ToPCD(NewCloud(0), &buf, PCDAscii), test.ShouldBeNil)
	header, data := splitPCD(t, buf.Bytes())
	test.That(t, header[8], test.ShouldEqual, "POINTS 0")
	test.That(t, len(data), test.ShouldEqual, 0)

	test.That(t, ToPCD(NewCloud(0), &buf, PCDCompressed), test.ShouldBeError, "compressed PCD not yet implemented")
}

func TestParsePCDType(t *testing.T) {
	pcdType, err := ParsePCDType("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pcdType, test.ShouldEqual, PCDBinary)
	pcdType, err = ParsePCDType("ascii")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pcdType, test.ShouldEqual, PCDAscii)
	_, err = ParsePCDType("xml")
	test.That(t, err, test.ShouldNotBeNil)
}
