// Package config defines the JSON configuration of the depth publisher.
package config

import (
	"image"
	"image/draw"
	// registers the decoder for mask files
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/depthpub/depthstate"
	"go.viam.com/depthpub/pointcloud"
	"go.viam.com/depthpub/publisher"
	"go.viam.com/depthpub/rimage/transform"
	"go.viam.com/depthpub/spatialmath"
)

// Config is the whole configuration of a depth publisher.
type Config struct {
	ConfigFilePath string `json:"-"`

	Intrinsics *transform.PinholeCameraIntrinsics `json:"intrinsics"`
	// WorldFromCamera places the camera in the world. Absent means the camera is the world origin.
	WorldFromCamera *spatialmath.PoseConfig `json:"world_from_camera,omitempty"`
	// WorldFromRig, when set, places the rig the camera is mounted on. WorldFromCamera is then
	// the mount, relative to the rig.
	WorldFromRig *spatialmath.PoseConfig `json:"world_from_rig,omitempty"`
	Publisher    publisher.Options       `json:"publisher"`
	Bus          BusConfig               `json:"bus"`
	Output       OutputConfig            `json:"output"`
	Scene        SceneConfig             `json:"scene"`
	Debug        bool                    `json:"debug"`
	// LogFile, when set, also writes JSON logs to this rotated file.
	LogFile string `json:"log_file,omitempty"`
}

// BusConfig sizes the in-process bus.
type BusConfig struct {
	// QueueSize is the per subscriber queue length. Zero uses the bus default.
	QueueSize int `json:"queue_size,omitempty"`
}

// Formats that published messages can be written in.
const (
	CloudFormatPCD = "pcd"
	CloudFormatLAS = "las"
	ImageFormatPNG = "png"
	ImageFormatPPM = "ppm"
)

// OutputConfig controls how published messages are written to disk.
type OutputConfig struct {
	// CloudFormat is "pcd" (the default) or "las".
	CloudFormat string `json:"cloud_format,omitempty"`
	// PCDFormat is one of "binary" (the default), "ascii" or "binary_compressed".
	PCDFormat string `json:"pcd_format,omitempty"`
	// ImageFormat is "png" (the default) or "ppm".
	ImageFormat string `json:"image_format,omitempty"`
}

// SceneConfig describes the synthetic plane rendered when no estimator is attached.
type SceneConfig struct {
	BaseDepth     float32 `json:"base_depth_m"`
	DepthSlope    float32 `json:"depth_slope_m_per_row"`
	DivergedEvery int     `json:"diverged_every,omitempty"`
	PendingEvery  int     `json:"pending_every,omitempty"`
	// MaskFile is an image whose nonzero pixels may be used for colored points. Relative paths
	// are resolved against the config file. Absent means the left half of the image.
	MaskFile string `json:"mask_file,omitempty"`
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// Validate reports every problem in the config, not just the first.
func (c *Config) Validate(path string) error {
	var errs error
	if c.Intrinsics == nil {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "intrinsics"))
	} else {
		if err := c.Intrinsics.CheckValid(); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, "intrinsics"), err))
		}
		if c.Intrinsics.Width == 0 || c.Intrinsics.Height == 0 {
			errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, "intrinsics"),
				errors.New("width_px and height_px must be set")))
		}
	}
	if _, err := c.WorldFromCamera.ParseConfig(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, "world_from_camera"), err))
	}
	if _, err := c.WorldFromRig.ParseConfig(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, "world_from_rig"), err))
	}
	errs = multierr.Append(errs, c.Publisher.Validate(joinPath(path, "publisher")))
	if c.Bus.QueueSize < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, "bus"),
			errors.Errorf("queue_size cannot be negative, got %d", c.Bus.QueueSize)))
	}
	errs = multierr.Append(errs, c.Output.Validate(joinPath(path, "output")))
	errs = multierr.Append(errs, c.Scene.Validate(joinPath(path, "scene")))
	return errs
}

// Pose returns the configured camera pose, composed with the rig pose when there is one.
func (c *Config) Pose() (spatialmath.Pose, error) {
	camera, err := c.WorldFromCamera.ParseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "world_from_camera")
	}
	if c.WorldFromRig == nil {
		return camera, nil
	}
	rig, err := c.WorldFromRig.ParseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "world_from_rig")
	}
	return spatialmath.Compose(rig, camera), nil
}

// Format returns the configured PCD encoding.
func (o OutputConfig) Format() (pointcloud.PCDType, error) {
	return pointcloud.ParsePCDType(o.PCDFormat)
}

// Cloud returns the point cloud file format, defaulting to PCD.
func (o OutputConfig) Cloud() string {
	if o.CloudFormat == "" {
		return CloudFormatPCD
	}
	return o.CloudFormat
}

// Image returns the image file format, defaulting to PNG.
func (o OutputConfig) Image() string {
	if o.ImageFormat == "" {
		return ImageFormatPNG
	}
	return o.ImageFormat
}

// Validate checks every format is one that can be written.
func (o *OutputConfig) Validate(path string) error {
	var errs error
	if format, err := o.Format(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	} else if format == pointcloud.PCDCompressed {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("binary_compressed pcd output is not supported")))
	}
	if cloud := o.Cloud(); cloud != CloudFormatPCD && cloud != CloudFormatLAS {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown cloud_format %q", cloud)))
	}
	if img := o.Image(); img != ImageFormatPNG && img != ImageFormatPPM {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown image_format %q", img)))
	}
	return errs
}

// Validate checks the scene can be rendered.
func (s *SceneConfig) Validate(path string) error {
	if !(s.BaseDepth > 0) {
		return utils.NewConfigValidationError(path, errors.Errorf("base_depth_m must be positive, got %v", s.BaseDepth))
	}
	if s.DivergedEvery < 0 || s.PendingEvery < 0 {
		return utils.NewConfigValidationError(path, errors.New("diverged_every and pending_every cannot be negative"))
	}
	return nil
}

// PlaneParams builds the synthetic scene this config describes.
func (c *Config) PlaneParams() (depthstate.PlaneParams, error) {
	pose, err := c.Pose()
	if err != nil {
		return depthstate.PlaneParams{}, err
	}
	var mask *image.Gray
	if c.Scene.MaskFile != "" {
		mask, err = readGray(c.resolvePath(c.Scene.MaskFile))
		if err != nil {
			return depthstate.PlaneParams{}, errors.Wrap(err, "cannot read scene mask")
		}
	}
	return depthstate.PlaneParams{
		Intrinsics:      c.Intrinsics,
		WorldFromCamera: pose,
		BaseDepth:       c.Scene.BaseDepth,
		DepthSlope:      c.Scene.DepthSlope,
		DivergedEvery:   c.Scene.DivergedEvery,
		PendingEvery:    c.Scene.PendingEvery,
		Colored:         c.Publisher.Colored,
		Mask:            mask,
	}, nil
}

func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || c.ConfigFilePath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.ConfigFilePath), p)
}

func readGray(path string) (*image.Gray, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if gray, ok := img.(*image.Gray); ok {
		return gray, nil
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray, nil
}
