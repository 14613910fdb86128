// Package main runs a ROS node that publishes the center of gravity of detected
// AR tags on target_pose, or replays a rosbag through the same computation.
package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/utils"

	"github.com/viamrobotics/ar-tag-cog/config"
	"github.com/viamrobotics/ar-tag-cog/ros"
	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

var logger = logging.NewLogger("ar_tags_cog")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=node config file"`
	TagIDs     string `flag:"tag-ids,usage=comma separated marker ids to accept; overrides the config file"`
	Mode       string `flag:"mode,usage=centroid mode: cascade or mean"`
	Master     string `flag:"master,usage=ROS master address (host:port)"`
	Bag        string `flag:"bag,usage=replay ar_pose_marker from this rosbag instead of joining a live master"`
	Topic      string `flag:"topic,usage=marker topic inside the bag"`
	Output     string `flag:"output,usage=file to write replayed poses to; defaults to stdout"`
	Summary    bool   `flag:"summary,usage=print replay counters when done"`
	Debug      bool   `flag:"debug"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(logging.DEBUG)
	}

	cfg, err := resolveConfig(argsParsed)
	if err != nil {
		return err
	}

	if argsParsed.Bag != "" {
		return runReplay(ctx, cfg, argsParsed, os.Stdout, os.Stderr, logger)
	}
	return runNode(ctx, cfg, logger)
}

// resolveConfig layers flags over the config file over defaults.
func resolveConfig(args Arguments) (*config.Config, error) {
	cfg := config.Default()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = config.Read(args.ConfigFile); err != nil {
			return nil, err
		}
	}
	if args.TagIDs != "" {
		ids, err := config.ParseTagIDs(args.TagIDs)
		if err != nil {
			return nil, err
		}
		cfg.TagIDs = ids
	}
	if args.Mode != "" {
		cfg.Mode = args.Mode
	}
	if args.Master != "" {
		cfg.Node.MasterAddress = args.Master
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runNode(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	node, err := ros.NewNode(ctx, cfg.RosNodeConfig(), cfg.AggregatorConfig(), logger)
	if err != nil {
		return err
	}
	defer node.Close()

	logger.Infof("Publishing combined tag COG on topic /%s...", cfg.Node.OutputTopic)
	utils.ContextMainReadyFunc(ctx)()

	<-ctx.Done()
	logger.Infow("AR Tag Tracker node terminated.", node.Aggregator().Stats().Fields()...)
	return nil
}

func runReplay(
	ctx context.Context,
	cfg *config.Config,
	args Arguments,
	stdout, stderr io.Writer,
	logger logging.Logger,
) (err error) {
	topic := args.Topic
	if topic == "" {
		topic = cfg.Node.InputTopic
	}
	if !strings.HasPrefix(topic, "/") {
		topic = "/" + topic
	}

	rb, err := ros.ReadBag(args.Bag)
	if err != nil {
		return err
	}
	batches, err := ros.MarkerBatches(rb, topic, 0, 0)
	if err != nil {
		return err
	}
	logger.Infow("replaying marker batches", "bag", args.Bag, "topic", topic, "batches", len(batches))

	out := stdout
	if args.Output != "" {
		//nolint:gosec
		f, createErr := os.Create(args.Output)
		if createErr != nil {
			return errors.Wrapf(createErr, "failed to create output file")
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		out = f
	}

	agg, err := tagcog.NewAggregator(cfg.AggregatorConfig(), ros.NewWriterPublisher(out), logger)
	if err != nil {
		return err
	}
	if err := ros.Replay(ctx, batches, agg, logger); err != nil {
		return err
	}

	stats := agg.Stats()
	logger.Infow("replay complete", stats.Fields()...)
	if args.Summary {
		writeSummary(stderr, stats)
	}
	return nil
}

func writeSummary(w io.Writer, stats tagcog.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Counter", "Value"})
	t.AppendRows([]table.Row{
		{"batches", stats.Batches},
		{"empty batches", stats.EmptyBatches},
		{"markers accepted", stats.Accepted},
		{"markers rejected", stats.Rejected},
		{"poses published", stats.Published},
		{"publish failures", stats.PublishFailures},
	})
	t.Render()
}
