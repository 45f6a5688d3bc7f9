package pointcloud

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// ParsePCDType maps the name used in configs to a PCDType.
func ParsePCDType(name string) (PCDType, error) {
	switch name {
	case "", "binary":
		return PCDBinary, nil
	case "ascii":
		return PCDAscii, nil
	case "binary_compressed":
		return PCDCompressed, nil
	default:
		return PCDBinary, errors.Errorf("unknown pcd data type %q", name)
	}
}

// ToPCD writes an intensity cloud as x y z intensity.
func ToPCD(cloud *Cloud, out io.Writer, outputType PCDType) error {
	header := "FIELDS x y z intensity\n" +
		"SIZE 4 4 4 4\n" +
		"TYPE F F F F\n" +
		"COUNT 1 1 1 1\n"
	if err := writePCDHeader(out, header, cloud.Size(), outputType); err != nil {
		return err
	}
	buf := make([]byte, 16)
	for _, p := range cloud.Points {
		var err error
		switch outputType {
		case PCDBinary:
			putPosition(buf, p.Position)
			binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(float32(p.Intensity)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f %d\n", p.Position.X, p.Position.Y, p.Position.Z, p.Intensity)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ToPCDColored writes a colored cloud as x y z rgb. In binary the rgb field holds the raw bits of
// ColoredPoint.RGB; in ascii it is written as the packed integer, matching what PCL readers expect.
func ToPCDColored(cloud *ColoredCloud, out io.Writer, outputType PCDType) error {
	header := "FIELDS x y z rgb\n" +
		"SIZE 4 4 4 4\n" +
		"TYPE F F F F\n" +
		"COUNT 1 1 1 1\n"
	if outputType == PCDAscii {
		header = "FIELDS x y z rgb\n" +
			"SIZE 4 4 4 4\n" +
			"TYPE F F F U\n" +
			"COUNT 1 1 1 1\n"
	}
	if err := writePCDHeader(out, header, cloud.Size(), outputType); err != nil {
		return err
	}
	buf := make([]byte, 16)
	for _, p := range cloud.Points {
		var err error
		switch outputType {
		case PCDBinary:
			putPosition(buf, p.Position)
			binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(p.RGB))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f %d\n", p.Position.X, p.Position.Y, p.Position.Z, math.Float32bits(p.RGB))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func putPosition(buf []byte, pos r3.Vector) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
}

func writePCDHeader(out io.Writer, fields string, size int, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDBinary:
		data = "binary"
	case PCDAscii:
		data = "ascii"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown pcd type %d", outputType)
	}
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		fields+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+ // points are already in the world frame
		"POINTS %d\n"+
		"DATA %s\n",
		size,
		1,
		size,
		data)
	return err
}
