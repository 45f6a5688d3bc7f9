package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lmittmann/ppm"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/depthpub/config"
	"go.viam.com/depthpub/logging"
	"go.viam.com/depthpub/pointcloud"
	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/transport"
)

type channelStats struct {
	messages int
	lastSeq  uint64
	points   int
}

// fileSink consumes bus messages. With a directory it writes image and point cloud files there;
// without one it only logs what arrived.
type fileSink struct {
	dir    string
	output config.OutputConfig
	format pointcloud.PCDType
	logger logging.Logger

	mu    sync.Mutex
	errs  error
	stats map[string]*channelStats
}

func newFileSink(dir string, output config.OutputConfig, logger logging.Logger) (*fileSink, error) {
	format, err := output.Format()
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	return &fileSink{
		dir:    dir,
		output: output,
		format: format,
		logger: logger,
		stats:  map[string]*channelStats{},
	}, nil
}

// Err returns every write failure seen so far.
func (s *fileSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

func (s *fileSink) record(channel string, seq uint64, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[channel]
	if !ok {
		st = &channelStats{}
		s.stats[channel] = st
	}
	st.messages++
	st.lastSeq = seq
	st.points += points
}

func (s *fileSink) handle(channel string, msg transport.Message) {
	header := msg.MessageHeader()
	switch m := msg.(type) {
	case *transport.ImageMessage:
		s.record(channel, header.Seq, 0)
		s.logger.Infow("image", "channel", channel, "frame", header.FrameID, "seq", header.Seq,
			"encoding", m.Encoding, "width", m.Width, "height", m.Height)
	case *transport.PointCloudMessage:
		s.record(channel, header.Seq, m.Size())
		kv := []interface{}{"channel", channel, "frame", header.FrameID, "seq", header.Seq, "points", m.Size()}
		if m.Size() > 0 {
			meta := m.MetaData()
			kv = append(kv, "min_z", meta.MinZ, "max_z", meta.MaxZ)
		}
		if median, err := stats.Median(heights(m)); err == nil {
			kv = append(kv, "median_z", median)
		}
		s.logger.Infow("point cloud", kv...)
	}
	if s.dir == "" {
		return
	}
	if err := s.write(channel, msg); err != nil {
		s.logger.Errorw("failed to write message", "channel", channel, "error", err)
		s.mu.Lock()
		s.errs = multierr.Append(s.errs, err)
		s.mu.Unlock()
	}
}

func heights(m *transport.PointCloudMessage) stats.Float64Data {
	if m.Cloud != nil {
		return lo.Map(m.Cloud.Points, func(p pointcloud.Point, _ int) float64 { return p.Position.Z })
	}
	if m.Colored != nil {
		return lo.Map(m.Colored.Points, func(p pointcloud.ColoredPoint, _ int) float64 { return p.Position.Z })
	}
	return nil
}

// WriteSummary renders a table of what each channel received.
func (s *fileSink) WriteSummary(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Channel", "Messages", "Last Seq", "Points"})
	channels := lo.Keys(s.stats)
	sort.Strings(channels)
	for _, channel := range channels {
		st := s.stats[channel]
		t.AppendRow(table.Row{channel, st.messages, st.lastSeq, st.points})
	}
	t.Render()
}

func (s *fileSink) fileName(channel string, seq uint64, ext string) string {
	name := strings.ReplaceAll(strings.Trim(channel, "/"), "/", "_")
	return filepath.Join(s.dir, fmt.Sprintf("%s_%04d.%s", name, seq, ext))
}

func (s *fileSink) write(channel string, msg transport.Message) error {
	seq := msg.MessageHeader().Seq
	switch m := msg.(type) {
	case *transport.ImageMessage:
		img, err := decodeImage(m)
		if err != nil {
			return err
		}
		ext := s.output.Image()
		return writeFile(s.fileName(channel, seq, ext), func(f *os.File) error {
			if ext == config.ImageFormatPPM {
				return ppm.Encode(f, img)
			}
			return png.Encode(f, img)
		})
	case *transport.PointCloudMessage:
		if s.output.Cloud() == config.CloudFormatLAS {
			fn := s.fileName(channel, seq, "las")
			if m.Colored != nil {
				return pointcloud.WriteColoredToLASFile(m.Colored, fn)
			}
			return pointcloud.WriteToLASFile(m.Cloud, fn)
		}
		return writeFile(s.fileName(channel, seq, "pcd"), func(f *os.File) error {
			if m.Colored != nil {
				return pointcloud.ToPCDColored(m.Colored, f, s.format)
			}
			return pointcloud.ToPCD(m.Cloud, f, s.format)
		})
	default:
		return errors.Errorf("cannot write message of type %T", msg)
	}
}

// decodeImage turns a published image back into something an image encoder accepts. Depth is
// drawn with a color ramp.
func decodeImage(m *transport.ImageMessage) (image.Image, error) {
	switch m.Encoding {
	case transport.Encoding32FC1:
		dm, err := rimage.DepthMapFrom32FC1(m.Width, m.Height, m.Data)
		if err != nil {
			return nil, err
		}
		return rimage.DepthToColor(dm), nil
	case transport.EncodingBGR8:
		return rimage.NewBGRImageFromData(m.Width, m.Height, m.Data)
	default:
		return nil, errors.Errorf("unsupported image encoding %q", m.Encoding)
	}
}

func writeFile(path string, encode func(f *os.File) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(encode(f), "writing %s", path)
}
