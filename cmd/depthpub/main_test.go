package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/lmittmann/ppm"
	"go.uber.org/zap"
	"go.viam.com/test"

	"go.viam.com/depthpub/config"
	"go.viam.com/depthpub/logging"
)

const testConfig = `{
	"intrinsics": {"width_px": 8, "height_px": 6, "fx": 8, "fy": 8, "ppx": 4, "ppy": 3},
	"publisher": {"colored": true, "parallel": true},
	"output": {"pcd_format": "ascii"},
	"scene": {"base_depth_m": 1, "depth_slope_m_per_row": 0.1, "diverged_every": 7}
}`

func TestRunWritesFiles(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := config.FromReader("", strings.NewReader(testConfig), logger)
	test.That(t, err, test.ShouldBeNil)

	dir := t.TempDir()
	var summary bytes.Buffer
	test.That(t, run(context.Background(), cfg, dir, 2, &summary, logger), test.ShouldBeNil)
	test.That(t, summary.String(), test.ShouldContainSubstring, "remode/rgb_pointcloud")

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	byChannel := map[string]int{}
	for _, e := range entries {
		name := e.Name()
		byChannel[name[:strings.LastIndex(name, "_")]]++
	}
	test.That(t, byChannel, test.ShouldResemble, map[string]int{
		"remode_depth":          2,
		"remode_pointcloud":     2,
		"remode_rgb_pointcloud": 2,
		"remode_convergence":    2,
	})

	var pcds []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "remode_pointcloud_") {
			pcds = append(pcds, e.Name())
		}
	}
	sort.Strings(pcds)
	raw, err := os.ReadFile(filepath.Join(dir, pcds[0]))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bytes.HasPrefix(raw, []byte("VERSION .7\n")), test.ShouldBeTrue)
	test.That(t, string(raw), test.ShouldContainSubstring, "FIELDS x y z intensity\n")
	test.That(t, string(raw), test.ShouldContainSubstring, "DATA ascii\n")
}

func TestRunLogsOnly(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := config.FromReader("", strings.NewReader(testConfig), logger)
	test.That(t, err, test.ShouldBeNil)
	cfg.Publisher.Colored = false

	test.That(t, run(context.Background(), cfg, "", 1, io.Discard, logger), test.ShouldBeNil)
	test.That(t, logs.FilterMessage("image").Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("point cloud").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("published round").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterField(zap.Int("points", 0)).Len(), test.ShouldEqual, 0)

	fields := logs.FilterMessage("point cloud").All()[0].ContextMap()
	minZ, maxZ, median := fields["min_z"].(float64), fields["max_z"].(float64), fields["median_z"].(float64)
	test.That(t, minZ, test.ShouldBeGreaterThan, 0)
	test.That(t, minZ, test.ShouldBeLessThanOrEqualTo, median)
	test.That(t, median, test.ShouldBeLessThanOrEqualTo, maxZ)
}

func TestRunWritesLASAndPPM(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := config.FromReader("", strings.NewReader(testConfig), logger)
	test.That(t, err, test.ShouldBeNil)
	cfg.Output.CloudFormat = config.CloudFormatLAS
	cfg.Output.ImageFormat = config.ImageFormatPPM

	dir := t.TempDir()
	test.That(t, run(context.Background(), cfg, dir, 1, io.Discard, logger), test.ShouldBeNil)

	las, err := filepath.Glob(filepath.Join(dir, "*.las"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(las), test.ShouldEqual, 2)

	ppms, err := filepath.Glob(filepath.Join(dir, "remode_convergence_*.ppm"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(ppms), test.ShouldEqual, 1)
	f, err := os.Open(ppms[0])
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	img, err := ppm.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 8)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 6)
}
