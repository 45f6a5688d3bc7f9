package pointcloud

import (
	"github.com/edaniels/lidario"
	"go.uber.org/multierr"
)

// WriteToLASFile writes an intensity cloud to a LAS file using point format 0. The 8 bit
// intensity is widened to the 16 bit LAS range.
func WriteToLASFile(cloud *Cloud, fn string) error {
	return writeLAS(fn, 0, cloud.Size(), func(i int) lidario.LasPointer {
		return newPointRecord0(cloud.Points[i])
	})
}

// WriteColoredToLASFile writes a colored cloud to a LAS file using point format 2.
func WriteColoredToLASFile(cloud *ColoredCloud, fn string) error {
	return writeLAS(fn, 2, cloud.Size(), func(i int) lidario.LasPointer {
		p := cloud.Points[i]
		r, g, b := p.RGB255()
		return &lidario.PointRecord2{
			PointRecord0: newPointRecord0(Point{Position: p.Position}),
			RGB: &lidario.RgbData{
				Red:   uint16(r) * 256,
				Green: uint16(g) * 256,
				Blue:  uint16(b) * 256,
			},
		}
	})
}

func newPointRecord0(p Point) *lidario.PointRecord0 {
	return &lidario.PointRecord0{
		X:         p.Position.X,
		Y:         p.Position.Y,
		Z:         p.Position.Z,
		Intensity: uint16(p.Intensity) * 257,
		BitField: lidario.PointBitField{
			Value: (1) | (1 << 3),
		},
		PointSourceID: 1,
	}
}

func writeLAS(fn string, pointFormatID byte, size int, point func(i int) lidario.LasPointer) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	if err := lf.AddHeader(lidario.LasHeader{PointFormatID: pointFormatID}); err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		if err := lf.AddLasPoint(point(i)); err != nil {
			return err
		}
	}
	return nil
}
