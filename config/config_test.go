package config

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/depthpub/depthstate"
	"go.viam.com/depthpub/logging"
	"go.viam.com/depthpub/pointcloud"
	"go.viam.com/depthpub/publisher"
	"go.viam.com/depthpub/rimage/transform"
	"go.viam.com/depthpub/spatialmath"
)

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("CAMERA_HEIGHT", "1.5")

	cfg, err := Read("data/plane.json", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "data/plane.json")
	test.That(t, cfg.Intrinsics, test.ShouldResemble, &transform.PinholeCameraIntrinsics{
		Width: 64, Height: 48, Fx: 60.5, Fy: 60.5, Ppx: 32, Ppy: 24,
	})
	test.That(t, cfg.Publisher.Colored, test.ShouldBeTrue)
	test.That(t, cfg.Publisher.Parallel, test.ShouldBeTrue)
	test.That(t, cfg.Publisher.Channels.Depth, test.ShouldEqual, "depth_raw")
	test.That(t, cfg.Publisher.FrameIDs.World, test.ShouldEqual, "map")
	test.That(t, cfg.Bus.QueueSize, test.ShouldEqual, 8)

	format, err := cfg.Output.Format()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, format, test.ShouldEqual, pointcloud.PCDAscii)
	test.That(t, cfg.Output.Image(), test.ShouldEqual, ImageFormatPPM)

	pose, err := cfg.Pose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{Z: 1.5}, 1e-9), test.ShouldBeTrue)
	// half turn about X flips the optical axis to point down
	down := pose.Transform(r3.Vector{Z: 1})
	test.That(t, spatialmath.R3VectorAlmostEqual(down, r3.Vector{Z: 0.5}, 1e-9), test.ShouldBeTrue)

	params, err := cfg.PlaneParams()
	test.That(t, err, test.ShouldBeNil)
	snap, err := depthstate.SyntheticPlane(params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, snap.Validate(), test.ShouldBeNil)
	test.That(t, snap.HasColor(), test.ShouldBeTrue)

	_, err = Read("data/missing.json", logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(`{
		"intrinsics": {"width_px": 4, "height_px": 3, "fx": 1, "fy": 1},
		"scene": {"base_depth_m": 1}
	}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.WorldFromCamera, test.ShouldBeNil)
	pose, err := cfg.Pose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(pose, spatialmath.NewZeroPose()), test.ShouldBeTrue)
	format, err := cfg.Output.Format()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, format, test.ShouldEqual, pointcloud.PCDBinary)
	test.That(t, cfg.Output.Cloud(), test.ShouldEqual, CloudFormatPCD)
	test.That(t, cfg.Output.Image(), test.ShouldEqual, ImageFormatPNG)
	test.That(t, cfg.LogFile, test.ShouldEqual, "")

	_, err = FromReader("", strings.NewReader(`{"intrinsics": `), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config")
}

func TestRigPose(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(`{
		"intrinsics": {"width_px": 4, "height_px": 3, "fx": 1, "fy": 1},
		"world_from_rig": {
			"translation": {"x": 10, "y": 0, "z": 0},
			"orientation": {"type": "axis_angles", "value": {"th": 1.5707963267948966, "z": 1}}
		},
		"world_from_camera": {"translation": {"x": 1, "y": 0, "z": 2}},
		"scene": {"base_depth_m": 1}
	}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	pose, err := cfg.Pose()
	test.That(t, err, test.ShouldBeNil)
	// the mount offset is turned by the rig before the rig translation is added
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 10, Y: 1, Z: 2}, 1e-9), test.ShouldBeTrue)
	out := pose.Transform(r3.Vector{X: 1})
	test.That(t, spatialmath.R3VectorAlmostEqual(out, r3.Vector{X: 10, Y: 2, Z: 2}, 1e-9), test.ShouldBeTrue)

	cfg.WorldFromRig.Orientation = &spatialmath.RawOrientation{Type: "euler"}
	_, err = cfg.Pose()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "world_from_rig")
	err = cfg.Validate("cfg")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cfg.world_from_rig")
}

func TestSceneMaskFile(t *testing.T) {
	dir := t.TempDir()
	mask := image.NewGray(image.Rect(0, 0, 4, 3))
	mask.Pix[1] = 255
	mask.Pix[11] = 1
	f, err := os.Create(filepath.Join(dir, "mask.png"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, png.Encode(f, mask), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	cfg := &Config{
		ConfigFilePath: filepath.Join(dir, "depthpub.json"),
		Intrinsics:     &transform.PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 1, Fy: 1},
		Publisher:      publisher.Options{Colored: true},
		Scene:          SceneConfig{BaseDepth: 1, MaskFile: "mask.png"},
	}
	params, err := cfg.PlaneParams()
	test.That(t, err, test.ShouldBeNil)
	snap, err := depthstate.SyntheticPlane(params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, snap.Mask.Valid(1, 0), test.ShouldBeTrue)
	test.That(t, snap.Mask.Valid(3, 2), test.ShouldBeTrue)
	test.That(t, snap.Mask.Valid(0, 0), test.ShouldBeFalse)

	cfg.Scene.MaskFile = "missing.png"
	_, err = cfg.PlaneParams()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "scene mask")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Intrinsics: &transform.PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 1, Fy: 1},
			Scene:      SceneConfig{BaseDepth: 1},
		}
	}
	test.That(t, valid().Validate("cfg"), test.ShouldBeNil)

	for _, tc := range []struct {
		name     string
		modify   func(c *Config)
		contains string
	}{
		{"no intrinsics", func(c *Config) { c.Intrinsics = nil }, `"intrinsics" is required`},
		{"bad focal length", func(c *Config) { c.Intrinsics.Fx = -1 }, "cfg.intrinsics"},
		{"no size", func(c *Config) { c.Intrinsics.Width = 0 }, "width_px and height_px"},
		{"bad orientation", func(c *Config) {
			c.WorldFromCamera = &spatialmath.PoseConfig{Orientation: &spatialmath.RawOrientation{Type: "euler"}}
		}, "cfg.world_from_camera"},
		{"zero quaternion", func(c *Config) {
			c.WorldFromCamera = &spatialmath.PoseConfig{Orientation: &spatialmath.RawOrientation{
				Type:  spatialmath.QuaternionType,
				Value: []byte(`{"w": 0, "x": 0, "y": 0, "z": 0}`),
			}}
		}, "cannot be normalized"},
		{"duplicate channels", func(c *Config) {
			c.Publisher.Channels.PointCloud = "same"
			c.Publisher.Channels.RGBPointCloud = "same"
		}, "cfg.publisher"},
		{"negative queue", func(c *Config) { c.Bus.QueueSize = -1 }, "queue_size"},
		{"unknown format", func(c *Config) { c.Output.PCDFormat = "las" }, "unknown pcd data type"},
		{"compressed format", func(c *Config) { c.Output.PCDFormat = "binary_compressed" }, "not supported"},
		{"unknown cloud format", func(c *Config) { c.Output.CloudFormat = "ply" }, "cloud_format"},
		{"unknown image format", func(c *Config) { c.Output.ImageFormat = "jpeg" }, "image_format"},
		{"no depth", func(c *Config) { c.Scene.BaseDepth = 0 }, "base_depth_m"},
		{"nan depth", func(c *Config) { c.Scene.BaseDepth = float32(math.NaN()) }, "base_depth_m"},
		{"negative pattern", func(c *Config) { c.Scene.PendingEvery = -2 }, "pending_every"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.modify(c)
			err := c.Validate("cfg")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.contains)
		})
	}

	t.Run("every problem is reported", func(t *testing.T) {
		c := valid()
		c.Intrinsics.Fy = 0
		c.Bus.QueueSize = -3
		c.Scene.BaseDepth = -1
		err := c.Validate("")
		test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 3)
		test.That(t, err.Error(), test.ShouldContainSubstring, "Fy")
	})
}
