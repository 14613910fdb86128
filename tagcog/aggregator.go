package tagcog

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
)

// Config is resolved once at startup and never changes afterwards.
type Config struct {
	// TagIDs is the optional allow-list. nil accepts every marker.
	TagIDs []int
	Mode   Mode
}

// An Aggregator turns marker batches into centroid poses. Batches are independent;
// nothing computed for one batch carries over to the next.
type Aggregator struct {
	allow  AllowList
	mode   Mode
	pub    Publisher
	clock  clock.Clock
	logger logging.Logger

	stats counters
}

// An Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used to stamp emitted poses.
func WithClock(c clock.Clock) Option {
	return func(a *Aggregator) {
		a.clock = c
	}
}

// NewAggregator returns an Aggregator publishing to pub. A nil pub discards poses.
func NewAggregator(conf Config, pub Publisher, logger logging.Logger, opts ...Option) (*Aggregator, error) {
	mode, err := ParseMode(string(conf.Mode))
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		allow:  NewAllowList(conf.TagIDs),
		mode:   mode,
		pub:    pub,
		clock:  clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.allow.Configured() {
		a.logger.Infow("restricting centroid to allowed tags", "tag_ids", a.allow.IDs(), "mode", a.mode)
	} else {
		a.logger.Infow("accepting all tags", "mode", a.mode)
	}
	return a, nil
}

// Mode returns the reduction mode in use.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// AllowList returns the configured allow-list, nil when unrestricted.
func (a *Aggregator) AllowList() AllowList {
	return a.allow
}

// Compute returns the poses a batch produces without publishing them.
func (a *Aggregator) Compute(batch []Marker) []Pose {
	var poses []Pose
	a.reduce(batch, func(p Pose) {
		poses = append(poses, p)
	})
	return poses
}

// OnBatch reduces batch and publishes every resulting pose in order. Each pose is
// handed to the publisher as soon as it is computed. A failed publish does not stop
// later ones; all failures are returned together alongside the emitted poses.
func (a *Aggregator) OnBatch(ctx context.Context, batch []Marker) ([]Pose, error) {
	a.stats.batches.Inc()
	if len(batch) == 0 {
		a.stats.emptyBatches.Inc()
		return nil, nil
	}

	var (
		poses []Pose
		errs  error
	)
	accepted := a.reduce(batch, func(p Pose) {
		poses = append(poses, p)
		if a.pub == nil {
			return
		}
		if err := a.pub.Publish(ctx, p); err != nil {
			a.stats.publishFailures.Inc()
			errs = multierr.Append(errs, errors.Wrapf(err, "failed to publish centroid in frame %q", p.FrameID))
			return
		}
		a.stats.published.Inc()
	})
	a.stats.accepted.Add(uint64(accepted))
	a.stats.rejected.Add(uint64(len(batch) - accepted))

	a.logger.Debugw("processed marker batch",
		"markers", len(batch),
		"accepted", accepted,
		"emitted", len(poses),
		"frame_id", batch[0].FrameID,
	)
	return poses, errs
}

// reduce calls emit for each pose the batch produces and returns how many markers
// passed the allow-list.
func (a *Aggregator) reduce(batch []Marker, emit func(Pose)) int {
	if len(batch) == 0 {
		return 0
	}
	frameID := batch[0].FrameID
	if a.mode == ModeMean {
		return a.mean(batch, frameID, emit)
	}
	return a.cascade(batch, frameID, emit)
}

func (a *Aggregator) cascade(batch []Marker, frameID string, emit func(Pose)) int {
	n := float64(len(batch))
	var acc r3.Vector
	accepted := 0
	for _, m := range batch {
		if !a.allow.Accepts(m.ID) {
			continue
		}
		accepted++
		acc = divide(acc.Add(m.Position), n)
		emit(a.pose(frameID, acc))
	}
	return accepted
}

func (a *Aggregator) mean(batch []Marker, frameID string, emit func(Pose)) int {
	var sum r3.Vector
	accepted := 0
	for _, m := range batch {
		if !a.allow.Accepts(m.ID) {
			continue
		}
		accepted++
		sum = sum.Add(m.Position)
	}
	if accepted > 0 {
		emit(a.pose(frameID, divide(sum, float64(accepted))))
	}
	return accepted
}

func (a *Aggregator) pose(frameID string, position r3.Vector) Pose {
	return Pose{
		FrameID:     frameID,
		Position:    position,
		Orientation: spatialmath.NewZeroOrientation().Quaternion(),
		Stamp:       a.clock.Now(),
	}
}

func divide(v r3.Vector, n float64) r3.Vector {
	return r3.Vector{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}
