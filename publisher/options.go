package publisher

import (
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// DefaultChannelPrefix is put in front of every channel name unless a prefix is configured.
const DefaultChannelPrefix = "remode/"

// ChannelNames are the channels results are published on. Empty names take their defaults.
type ChannelNames struct {
	// Prefix is prepended to every name. nil means DefaultChannelPrefix; an empty string means no
	// prefix.
	Prefix        *string `json:"prefix,omitempty"`
	Depth         string  `json:"depth,omitempty"`
	PointCloud    string  `json:"pointcloud,omitempty"`
	RGBPointCloud string  `json:"rgb_pointcloud,omitempty"`
	Convergence   string  `json:"convergence,omitempty"`
}

// FrameIDs are the frames stamped into message headers. Empty ids take their defaults.
type FrameIDs struct {
	Depth       string `json:"depth,omitempty"`
	Convergence string `json:"convergence,omitempty"`
	World       string `json:"world,omitempty"`
}

// Options configure a Publisher.
type Options struct {
	Channels ChannelNames `json:"channels"`
	FrameIDs FrameIDs     `json:"frame_ids"`
	// Colored enables the colored point cloud.
	Colored bool `json:"colored"`
	// Parallel projects bands of rows concurrently. The result does not change.
	Parallel bool `json:"parallel"`
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// withDefaults returns a copy with every empty name filled in and the prefix applied.
func (o Options) withDefaults() Options {
	prefix := DefaultChannelPrefix
	if o.Channels.Prefix != nil {
		prefix = *o.Channels.Prefix
	}
	out := o
	out.Channels = ChannelNames{
		Prefix:        &prefix,
		Depth:         prefix + orDefault(o.Channels.Depth, "depth"),
		PointCloud:    prefix + orDefault(o.Channels.PointCloud, "pointcloud"),
		RGBPointCloud: prefix + orDefault(o.Channels.RGBPointCloud, "rgb_pointcloud"),
		Convergence:   prefix + orDefault(o.Channels.Convergence, "convergence"),
	}
	out.FrameIDs = FrameIDs{
		Depth:       orDefault(o.FrameIDs.Depth, "depthmap"),
		Convergence: orDefault(o.FrameIDs.Convergence, "convergence_map"),
		World:       orDefault(o.FrameIDs.World, "world"),
	}
	return out
}

// Validate ensures the channel names are distinct once defaults and the prefix are applied.
func (o *Options) Validate(path string) error {
	resolved := o.withDefaults()
	seen := map[string]string{}
	for _, ch := range []struct{ field, name string }{
		{"depth", resolved.Channels.Depth},
		{"pointcloud", resolved.Channels.PointCloud},
		{"rgb_pointcloud", resolved.Channels.RGBPointCloud},
		{"convergence", resolved.Channels.Convergence},
	} {
		if other, ok := seen[ch.name]; ok {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("channels %q and %q both publish on %q", other, ch.field, ch.name))
		}
		seen[ch.name] = ch.field
	}
	return nil
}
