// Package publisher reads the depth estimator state and publishes depth maps, point clouds and
// convergence maps from it.
package publisher

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/depthpub/depthstate"
	"go.viam.com/depthpub/logging"
	"go.viam.com/depthpub/projection"
	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/transport"
)

// A Transport takes ownership of published messages. It never reports delivery.
type Transport interface {
	Publish(channel string, msg transport.Message)
}

// Publisher turns snapshots from a Source into messages. Every Publish method holds the snapshot
// only while computing and publishes after releasing it.
type Publisher struct {
	source    depthstate.Source
	transport Transport
	opts      Options
	logger    logging.Logger
	clock     clock.Clock
	seq       atomic.Uint64
}

// New returns a Publisher. A nil logger discards logs and a nil clk uses the wall clock.
func New(source depthstate.Source, tr Transport, opts Options, logger logging.Logger, clk clock.Clock) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher needs a depth source")
	}
	if tr == nil {
		return nil, errors.New("publisher needs a transport")
	}
	if err := opts.Validate("publisher"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("publisher")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Publisher{
		source:    source,
		transport: tr,
		opts:      opts.withDefaults(),
		logger:    logger,
		clock:     clk,
	}, nil
}

// Channels returns the resolved channel names.
func (p *Publisher) Channels() ChannelNames {
	return p.opts.Channels
}

func (p *Publisher) header(frameID string) transport.Header {
	return transport.Header{
		Seq:     p.seq.Inc(),
		FrameID: frameID,
		Stamp:   p.clock.Now(),
	}
}

// withSnapshot runs fn while holding the snapshot. Any message fn returns is published after the
// snapshot is released. A nil message means nothing is published.
func (p *Publisher) withSnapshot(
	ctx context.Context,
	channel string,
	fn func(*depthstate.Snapshot) (transport.Message, error),
) error {
	snap, release, err := p.source.Acquire(ctx)
	if err != nil {
		return err
	}
	msg, err := func() (transport.Message, error) {
		defer release()
		return fn(snap)
	}()
	if err != nil || msg == nil {
		return err
	}
	p.transport.Publish(channel, msg)
	return nil
}

// PublishDepthmap publishes the raw depth map as a 32FC1 image.
func (p *Publisher) PublishDepthmap(ctx context.Context) error {
	channel := p.opts.Channels.Depth
	return p.withSnapshot(ctx, channel, func(snap *depthstate.Snapshot) (transport.Message, error) {
		if snap.Depth == nil {
			return nil, errors.Wrap(depthstate.ErrIncompleteSnapshot, "no depth map to publish")
		}
		w, h := snap.Depth.Width(), snap.Depth.Height()
		p.logger.Debugw("publishing depth map", "channel", channel, "width", w, "height", h)
		return &transport.ImageMessage{
			Header:   p.header(p.opts.FrameIDs.Depth),
			Encoding: transport.Encoding32FC1,
			Width:    w,
			Height:   h,
			Step:     4 * w,
			Data:     snap.Depth.Bytes32FC1(),
		}, nil
	})
}

// PublishPointCloud publishes the intensity point cloud of the converged pixels. An empty cloud is
// not published.
func (p *Publisher) PublishPointCloud(ctx context.Context) error {
	channel := p.opts.Channels.PointCloud
	return p.withSnapshot(ctx, channel, func(snap *depthstate.Snapshot) (transport.Message, error) {
		cloud, err := projection.Project(snap, projection.WithParallel(p.opts.Parallel))
		if err != nil {
			return nil, err
		}
		if cloud.Empty() {
			p.logger.Debugw("no converged pixels, point cloud not published", "channel", channel)
			return nil, nil
		}
		p.logger.Debugw("publishing point cloud", "channel", channel, "points", cloud.Size())
		return &transport.PointCloudMessage{Header: p.header(p.opts.FrameIDs.World), Cloud: cloud}, nil
	})
}

// PublishPointCloudRGB publishes the colored point cloud of the converged pixels the mask allows.
// Nothing is published when color is disabled, the snapshot has no color image, or the cloud is
// empty.
func (p *Publisher) PublishPointCloudRGB(ctx context.Context) error {
	channel := p.opts.Channels.RGBPointCloud
	if !p.opts.Colored {
		p.logger.Debugw("colored point cloud disabled", "channel", channel)
		return nil
	}
	return p.withSnapshot(ctx, channel, func(snap *depthstate.Snapshot) (transport.Message, error) {
		if !snap.HasColor() {
			p.logger.Debugw("no color image, colored point cloud not published", "channel", channel)
			return nil, nil
		}
		cloud, err := projection.ProjectColored(snap, projection.WithParallel(p.opts.Parallel))
		if err != nil {
			return nil, err
		}
		if cloud.Empty() {
			p.logger.Debugw("no usable converged pixels, colored point cloud not published", "channel", channel)
			return nil, nil
		}
		p.logger.Debugw("publishing colored point cloud", "channel", channel, "points", cloud.Size())
		return &transport.PointCloudMessage{Header: p.header(p.opts.FrameIDs.World), Colored: cloud}, nil
	})
}

// PublishConvergenceMap publishes the convergence overlay as a bgr8 image.
func (p *Publisher) PublishConvergenceMap(ctx context.Context) error {
	channel := p.opts.Channels.Convergence
	return p.withSnapshot(ctx, channel, func(snap *depthstate.Snapshot) (transport.Message, error) {
		if err := snap.ValidateGray(); err != nil {
			return nil, errors.Wrap(err, "cannot render convergence map")
		}
		img, err := rimage.RenderConvergence(snap.Convergence, snap.Gray)
		if err != nil {
			return nil, err
		}
		w, h := img.Width(), img.Height()
		p.logger.Debugw("publishing convergence map", "channel", channel,
			"converged", snap.Convergence.Count(rimage.Converged),
			"diverged", snap.Convergence.Count(rimage.Diverged))
		return &transport.ImageMessage{
			Header:   p.header(p.opts.FrameIDs.Convergence),
			Encoding: transport.EncodingBGR8,
			Width:    w,
			Height:   h,
			Step:     img.Stride,
			Data:     img.Pix,
		}, nil
	})
}

// PublishDepthmapAndPointCloud publishes the depth map and both point clouds. Each runs even when
// an earlier one fails; the failures are combined.
func (p *Publisher) PublishDepthmapAndPointCloud(ctx context.Context) error {
	return multierr.Combine(
		p.PublishDepthmap(ctx),
		p.PublishPointCloud(ctx),
		p.PublishPointCloudRGB(ctx),
	)
}

// PublishAll publishes everything PublishDepthmapAndPointCloud does plus the convergence map.
func (p *Publisher) PublishAll(ctx context.Context) error {
	return multierr.Combine(
		p.PublishDepthmapAndPointCloud(ctx),
		p.PublishConvergenceMap(ctx),
	)
}
