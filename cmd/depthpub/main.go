// Package main publishes depth maps, point clouds and convergence maps of a synthetic scene and
// writes what it publishes to disk.
package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/depthpub/config"
	"go.viam.com/depthpub/depthstate"
	"go.viam.com/depthpub/logging"
	"go.viam.com/depthpub/publisher"
	"go.viam.com/depthpub/rimage"
	"go.viam.com/depthpub/transport"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagOut    = "out"
	flagRounds = "rounds"
)

func main() {
	app := &cli.App{
		Name:  "depthpub",
		Usage: "publish depth estimator output as images and point clouds",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "publish a synthetic scene described by a config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write published messages into `DIR` instead of only logging them",
					},
					&cli.IntFlag{
						Name:  flagRounds,
						Value: 1,
						Usage: "publish this many times, converging more of the scene each time",
					},
				},
				Action: runAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Global().AsZap().Fatal(err)
	}
}

func runAction(c *cli.Context) error {
	logger := logging.NewLogger("depthpub")
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	logging.ReplaceGlobal(logger)

	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		fileLogger, closer, err := logging.NewFileLogger("depthpub", logger.GetLevel(), cfg.LogFile)
		if err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(closer.Close)
		logger = fileLogger
		logging.ReplaceGlobal(logger)
	}
	if cfg.Debug {
		logger.SetLevel(logging.DEBUG)
	}
	rounds := c.Int(flagRounds)
	if rounds < 1 {
		return errors.Errorf("--%s must be at least 1", flagRounds)
	}
	return run(c.Context, cfg, c.String(flagOut), rounds, c.App.Writer, logger)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	outDir string,
	rounds int,
	summary io.Writer,
	logger logging.Logger,
) (err error) {
	params, err := cfg.PlaneParams()
	if err != nil {
		return err
	}
	// start with nothing converged; each round converges another band of rows
	scene, err := depthstate.SyntheticPlane(params)
	if err != nil {
		return err
	}
	final := scene.Convergence.Clone()
	scene.Convergence.Fill(rimage.Update)
	store := depthstate.NewStore(scene)

	bus := transport.NewBus(logger.Sublogger("bus"))
	pub, err := publisher.New(store, bus, cfg.Publisher, logger.Sublogger("publisher"), nil)
	if err != nil {
		return err
	}

	sink, err := newFileSink(outDir, cfg.Output, logger.Sublogger("sink"))
	if err != nil {
		return err
	}
	channels := pub.Channels()
	for _, channel := range []string{channels.Depth, channels.PointCloud, channels.RGBPointCloud, channels.Convergence} {
		if err := bus.Subscribe(channel, cfg.Bus.QueueSize, sink.handle); err != nil {
			return err
		}
	}
	defer func() {
		bus.Close()
		sink.WriteSummary(summary)
		err = multierr.Combine(err, sink.Err())
	}()

	height := scene.Depth.Height()
	for round := 0; round < rounds; round++ {
		upTo := height * (round + 1) / rounds
		if err := store.Update(ctx, func(s *depthstate.Snapshot) {
			for y := 0; y < upTo; y++ {
				for x := 0; x < s.Convergence.Width(); x++ {
					s.Convergence.Set(x, y, final.Get(x, y))
				}
			}
		}); err != nil {
			return err
		}

		// both readers take turns on the snapshot
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return pub.PublishDepthmapAndPointCloud(gctx)
		})
		g.Go(func() error {
			return pub.PublishConvergenceMap(gctx)
		})
		if err := g.Wait(); err != nil {
			return errors.Wrapf(err, "round %d", round)
		}
		logger.Infow("published round", "round", round, "converged_rows", upTo)
	}
	return nil
}
